package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// fileRecording offers a local file to an upload session.
type fileRecording struct {
	key  string
	path string
	name string
	size int64
	meta map[string]string
}

func newFileRecording(key, path, name string, meta map[string]string) (*fileRecording, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if name == "" {
		name = filepath.Base(path)
	}
	return &fileRecording{key: key, path: path, name: name, size: info.Size(), meta: meta}, nil
}

func (f *fileRecording) ID() string                  { return f.key }
func (f *fileRecording) DisplayName() string         { return f.name }
func (f *fileRecording) Size() int64                 { return f.size }
func (f *fileRecording) Metadata() map[string]string { return f.meta }

func (f *fileRecording) Open(context.Context) (io.ReadCloser, error) {
	return os.Open(f.path)
}
