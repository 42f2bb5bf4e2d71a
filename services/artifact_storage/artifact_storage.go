// Copyright 2024-2025 NetCracker Technology Corporation
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package artifact_storage ships flushed harness artifacts (output logs,
// capture files) to S3/minio when a bucket is configured.
package artifact_storage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Netcracker/qubership-dataplane-test-harness/entities"
	"github.com/Netcracker/qubership-dataplane-test-harness/utils"
	"github.com/Netcracker/qubership-dataplane-test-harness/view"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	log "github.com/sirupsen/logrus"
)

type ArtifactStorage interface {
	StoreFile(fileName string)
}

// BreakTheLoop the sentinel file name that terminates the upload goroutine
const BreakTheLoop = "BREAK!"

// BucketFolder object name prefix inside the bucket
const BucketFolder = "HarnessArtifacts"

type artifactStorage struct {
	inputQueue  chan string
	creds       entities.MinioStorageCreds
	minioClient *minio.Client
	clientErr   error
}

// createMinioClient
// builds the client for active credentials; an inactive storage keeps a
// nil client and only logs what it would have uploaded
func createMinioClient(creds entities.MinioStorageCreds) (*minio.Client, error) {
	if !creds.IsActive {
		return nil, nil
	}
	client, err := minio.New(creds.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(creds.AccessKeyId, creds.SecretAccessKey, ""),
		Secure: true,
	})
	if err != nil {
		log.Warnf("error creating the minio connection: %v", err)
		return nil, err
	}
	log.Infof("MINIO instance initialized")
	return client, nil
}

// NewArtifactStorage
// creates interface instance and starts the upload goroutine
func NewArtifactStorage(creds entities.MinioStorageCreds) ArtifactStorage {
	client, err := createMinioClient(creds)
	ret := &artifactStorage{
		inputQueue:  make(chan string, 4),
		creds:       creds,
		minioClient: client,
		clientErr:   err,
	}
	utils.SafeAsyncNamed("artifact-storage", func() {
		storeProcedure(ret)
	})
	return ret
}

// StoreFile
// queues one file for upload
func (s3 *artifactStorage) StoreFile(fileName string) {
	s3.inputQueue <- fileName
	log.Debugf("requested to store file: %s", fileName)
}

// storeProcedure
// goroutine to serve file storing
func storeProcedure(s3 *artifactStorage) {
	for {
		fileName := <-s3.inputQueue
		if fileName == view.EmptyString {
			continue
		}
		if fileName == BreakTheLoop {
			break
		}
		if !s3.creds.IsActive || s3.minioClient == nil {
			log.Printf("storage inactive. do not store file %s", fileName)
			continue
		}
		// a couple attempts per file
		for i := 0; i < 3; i++ {
			if err := s3.uploadFile(fileName); err != nil {
				log.Errorf("unable to store file '%s'. Error: %v", fileName, err)
				continue
			}
			break
		}
	}
}

// uploadFile
// reads the file and puts it into the bucket, creating the bucket on the
// first upload
func (s3 *artifactStorage) uploadFile(fileName string) error {
	fileBytes, err := os.ReadFile(fileName)
	if err != nil {
		return err
	}
	ctx := context.Background()
	if err := s3.createBucketIfNotExists(ctx); err != nil {
		return err
	}
	objectName := fmt.Sprintf("%s/%s", BucketFolder, filepath.Base(fileName))
	_, err = s3.minioClient.PutObject(ctx, s3.creds.BucketName, objectName,
		bytes.NewReader(fileBytes), int64(len(fileBytes)), minio.PutObjectOptions{})
	if err != nil {
		return err
	}
	log.Printf("stored %d byte(s) from file '%s' in s3/minio", len(fileBytes), fileName)
	return nil
}

func (s3 *artifactStorage) createBucketIfNotExists(ctx context.Context) error {
	exists, err := s3.minioClient.BucketExists(ctx, s3.creds.BucketName)
	if err != nil {
		return err
	}
	if exists {
		log.Debugf("Using S3/Minio bucket '%s'", s3.creds.BucketName)
		return nil
	}
	if err := s3.minioClient.MakeBucket(ctx, s3.creds.BucketName, minio.MakeBucketOptions{}); err != nil {
		return err
	}
	log.Debugf("S3/Minio bucket '%s' has been created", s3.creds.BucketName)
	return nil
}
