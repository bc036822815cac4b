package util

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// EnsureDir creates the folder (and parents) when missing
func EnsureDir(dir string) error {
	if _, err := os.Stat(dir); err == nil {
		return nil
	}
	return errors.Wrapf(os.MkdirAll(dir, os.ModePerm), "creating %s", dir)
}

// WriteToFile writes the content to savePath, creating parent folders
func WriteToFile(savePath string, content []byte) error {
	if err := EnsureDir(filepath.Dir(savePath)); err != nil {
		return err
	}
	return errors.Wrapf(os.WriteFile(savePath, content, 0644), "writing %s", savePath)
}

// AppendToFile appends each string followed by a new line
func AppendToFile(savePath string, content ...string) error {
	if err := EnsureDir(filepath.Dir(savePath)); err != nil {
		return err
	}
	f, err := os.OpenFile(savePath, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0600)
	if err != nil {
		return errors.Wrapf(err, "opening %s", savePath)
	}
	defer f.Close()

	for _, s := range content {
		if _, err = f.WriteString(s + "\n"); err != nil {
			return errors.Wrapf(err, "appending to %s", savePath)
		}
	}
	return nil
}

// AppendJSONLine marshals v and appends it as one line of a jsonl file
func AppendJSONLine(savePath string, v interface{}) error {
	bs, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "marshalling record")
	}
	return AppendToFile(savePath, string(bs))
}
