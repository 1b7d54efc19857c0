package config

import (
	"os"
	"path/filepath"
)

const configTemplate = `# boduan configuration

[storage]
# database_path = "~/.config/boduan/boduan.db"

[logging]
level = "info"
console = true
file = true

[monitor]
# Rule evaluation cadence.
eval_interval = "60s"
# Position price refresh cadence.
refresh_interval = "30s"
timezone = "Asia/Shanghai"

[provider]
base_url = "http://127.0.0.1:5000"
timeout = "10s"

[ui]
color_enabled = true
date_format = "2006-01-02"
`

// writeTemplate writes a commented config template on first run so the user
// has something to edit.
func writeTemplate(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}
	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, []byte(configTemplate), 0644)
}
