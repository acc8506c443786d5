package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

const signedUrlValidity = 15 * time.Minute

type Options struct {
	CredentialsFile string
	BucketName      string
}

type serviceAccountDetails struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

func New(ctx context.Context, options Options) (*GoogleStorage, error) {
	client, err := storage.NewClient(ctx, option.WithCredentialsFile(options.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %v", err)
	}
	gs := &GoogleStorage{
		client: client,
		bucket: options.BucketName,
	}

	b, err := ioutil.ReadFile(options.CredentialsFile)
	if err != nil {
		return nil, err
	}
	if err = json.Unmarshal(b, &gs.serviceAccountDetails); err != nil {
		return nil, err
	}

	return gs, nil
}

type GoogleStorage struct {
	client                *storage.Client
	bucket                string
	serviceAccountDetails serviceAccountDetails
	StringGenerator       interface {
		GenerateUuid() string
	} `inject:""`
}

func (s *GoogleStorage) Store(ctx context.Context, b64image string, folder string) (string, error) {
	if b64image == "" {
		return "", nil
	}
	decoded, err := decodeJpeg(b64image)
	if err != nil {
		return "", err
	}

	fileName := s.StringGenerator.GenerateUuid() + ".jpg"
	if folder != "" {
		fileName = folder + "/" + fileName
	}
	w := s.client.Bucket(s.bucket).Object(fileName).NewWriter(ctx)
	w.ContentType = jpegMimetype

	if _, err = w.Write(decoded); err != nil {
		w.Close()
		return "", errors.Wrap(err, "failed to upload image")
	}

	return fileName, w.Close()
}

// Get returns a short lived signed url.
func (s *GoogleStorage) Get(ctx context.Context, fileName string) (string, error) {
	if fileName == "" {
		return "", nil
	}
	return storage.SignedURL(s.bucket, fileName, &storage.SignedURLOptions{
		GoogleAccessID: s.serviceAccountDetails.ClientEmail,
		PrivateKey:     []byte(s.serviceAccountDetails.PrivateKey),
		Method:         http.MethodGet,
		Expires:        time.Now().Add(signedUrlValidity),
	})
}

func (s *GoogleStorage) Delete(ctx context.Context, fileName string) error {
	if fileName == "" {
		return nil
	}
	err := s.client.Bucket(s.bucket).Object(fileName).Delete(ctx)
	if err == storage.ErrObjectNotExist {
		return nil
	}
	return err
}
