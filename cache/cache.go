// Package cache keeps rendered exports on disk, one directory per user.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

type ExportCache struct {
	dir    string
	maxAge time.Duration
}

func NewExportCache(dir string, maxAge time.Duration) *ExportCache {
	return &ExportCache{dir: dir, maxAge: maxAge}
}

// Hash returns the hex xxHash of s.
func Hash(s string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(s))
}

func (c *ExportCache) userDir(userID int) string {
	return filepath.Join(c.dir, strconv.Itoa(userID))
}

// Path returns the cache file for a user's export of content.
func (c *ExportCache) Path(userID int, content, ext string) string {
	return filepath.Join(c.userDir(userID), Hash(content)+"."+ext)
}

// Write stores data under the key of (userID, content, ext).
func (c *ExportCache) Write(userID int, content, ext string, data []byte) error {
	if c == nil {
		return nil
	}
	if err := os.MkdirAll(c.userDir(userID), 0755); err != nil {
		return err
	}
	return os.WriteFile(c.Path(userID, content, ext), data, 0644)
}

// Read returns the cached bytes if present and younger than maxAge.
func (c *ExportCache) Read(userID int, content, ext string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	path := c.Path(userID, content, ext)

	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if c.maxAge > 0 && time.Since(info.ModTime()) > c.maxAge {
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return data, true
}

// ClearUser drops every cached export of a user.
func (c *ExportCache) ClearUser(userID int) error {
	if c == nil {
		return nil
	}
	return os.RemoveAll(c.userDir(userID))
}

// ClearOld removes cached files older than maxAge.
func (c *ExportCache) ClearOld() error {
	if c == nil || c.maxAge <= 0 {
		return nil
	}
	if _, err := os.Stat(c.dir); os.IsNotExist(err) {
		return nil
	}

	return filepath.Walk(c.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".pdf") && !strings.HasSuffix(path, ".txt") {
			return nil
		}
		if time.Since(info.ModTime()) > c.maxAge {
			os.Remove(path)
		}
		return nil
	})
}
