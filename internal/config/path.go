// Package config provides configuration utilities for the application.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ExpandPath expands ~ and environment variables in a file path.
// It handles both ~ for home directory and $VAR style environment variables.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}

// DatabasePath resolves the sqlite database location: the configured
// `database.path` when set, otherwise ~/.local/share/lockbox/lockbox.db.
func DatabasePath() string {
	if p := viper.GetString("database.path"); p != "" {
		return ExpandPath(p)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "lockbox.db"
	}
	return filepath.Join(home, ".local", "share", "lockbox", "lockbox.db")
}

// CommentServiceURL returns the remote comment store base URL, empty
// when comments are disabled.
func CommentServiceURL() string {
	return viper.GetString("comments.url")
}

// PrototypeKey returns the comment-store key this workspace posts
// reviewer notes under.
func PrototypeKey() string {
	if k := viper.GetString("comments.key"); k != "" {
		return k
	}
	return "lockbox-review"
}
