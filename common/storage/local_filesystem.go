package storage

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// LocalStorage writes images under a directory. It backs local development when no bucket is configured.
type LocalStorage struct {
	Root            string
	PublicUrlPrefix string
	StringGenerator interface {
		GenerateUuid() string
	} `inject:""`
}

func (s *LocalStorage) Store(ctx context.Context, b64image string, folder string) (string, error) {
	if b64image == "" {
		return "", nil
	}
	decoded, err := decodeJpeg(b64image)
	if err != nil {
		return "", err
	}

	fileName := filepath.ToSlash(filepath.Join(folder, s.StringGenerator.GenerateUuid()+".jpg"))
	fullPath := filepath.Join(s.Root, filepath.FromSlash(fileName))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", errors.Wrap(err, "failed to create image folder")
	}
	if err := ioutil.WriteFile(fullPath, decoded, 0644); err != nil {
		return "", errors.Wrap(err, "failed to write image")
	}
	return fileName, nil
}

func (s *LocalStorage) Get(ctx context.Context, fileName string) (string, error) {
	if fileName == "" {
		return "", nil
	}
	return s.PublicUrlPrefix + fileName, nil
}

func (s *LocalStorage) Delete(ctx context.Context, fileName string) error {
	if fileName == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.Root, filepath.FromSlash(fileName)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
