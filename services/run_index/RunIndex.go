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

// Package run_index keeps a persistent on-disk index of the artifacts one
// harness run produced, keyed by capture or test name, for post-run tooling.
package run_index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Netcracker/qubership-dataplane-test-harness/entities"
	"github.com/Netcracker/qubership-dataplane-test-harness/utils"
	"github.com/Netcracker/qubership-dataplane-test-harness/view"
	"github.com/akrylysov/pogreb"
	log "github.com/sirupsen/logrus"
)

const (
	ErrorIndexIsNil     = "run index %s is nil"
	ErrorIndexKeyEmpty  = "empty key is not allowed for run index %s"
	ErrorIndexStore     = "run index %s failed to store record under key %s. Error %v"
	ErrorIndexLookup    = "run index %s lookup failed for key %s. Error %v"
	ErrorRecordNotFound = "run index %s has no record for key %s"
)

// RunIndex public interface
type RunIndex interface {
	PutRecord(key string, record entities.RunRecord) error
	GetRecord(key string) (*entities.RunRecord, error)
	AppendFile(key string, fileName string) error
	Records() ([]entities.RunRecord, error)
	Count() int
	Close() error
}

// runIndex
// implementation for public interface
type runIndex struct {
	db        *pogreb.DB
	indexName string
	indexDir  string
}

// NewRunIndex
// opens a new index under indexDir; every harness run gets its own
// directory suffix so parallel runs never collide
func NewRunIndex(indexName string, indexDir string) (RunIndex, error) {
	if indexDir == view.EmptyString {
		indexDir = os.TempDir()
	}
	indexPath := filepath.Join(indexDir, indexName+utils.MakeUniqueId())
	db, err := pogreb.Open(indexPath, nil)
	if err != nil {
		return nil, err
	}
	return &runIndex{
		db:        db,
		indexName: indexName,
		indexDir:  indexPath,
	}, nil
}

// PutRecord
// stores (replacing) a run record under key
func (idx *runIndex) PutRecord(key string, record entities.RunRecord) error {
	if idx.db == nil {
		return fmt.Errorf(ErrorIndexIsNil, idx.indexName)
	}
	if key == view.EmptyString {
		return fmt.Errorf(ErrorIndexKeyEmpty, idx.indexName)
	}
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf(ErrorIndexStore, idx.indexName, key, err)
	}
	if err := idx.db.Put([]byte(key), body); err != nil {
		return fmt.Errorf(ErrorIndexStore, idx.indexName, key, err)
	}
	return nil
}

// GetRecord
// loads the record stored under key
func (idx *runIndex) GetRecord(key string) (*entities.RunRecord, error) {
	if idx.db == nil {
		return nil, fmt.Errorf(ErrorIndexIsNil, idx.indexName)
	}
	if key == view.EmptyString {
		return nil, fmt.Errorf(ErrorIndexKeyEmpty, idx.indexName)
	}
	body, err := idx.db.Get([]byte(key))
	if err != nil {
		return nil, fmt.Errorf(ErrorIndexLookup, idx.indexName, key, err)
	}
	if body == nil {
		return nil, fmt.Errorf(ErrorRecordNotFound, idx.indexName, key)
	}
	record := &entities.RunRecord{}
	if err := entities.UnmarshallRunRecord(record, body); err != nil {
		return nil, fmt.Errorf(ErrorIndexLookup, idx.indexName, key, err)
	}
	return record, nil
}

// AppendFile
// attaches one artifact file to the record under key, creating the record
// when absent
func (idx *runIndex) AppendFile(key string, fileName string) error {
	record, err := idx.GetRecord(key)
	if err != nil {
		record = &entities.RunRecord{CaptureName: key}
	}
	record.Files = append(record.Files, fileName)
	return idx.PutRecord(key, *record)
}

// Records
// returns every stored record, iteration order is unspecified
func (idx *runIndex) Records() ([]entities.RunRecord, error) {
	if idx.db == nil {
		return nil, fmt.Errorf(ErrorIndexIsNil, idx.indexName)
	}
	it := idx.db.Items()
	var records []entities.RunRecord
	for {
		_, val, err := it.Next()
		if err != nil {
			if errors.Is(err, pogreb.ErrIterationDone) {
				break
			}
			return nil, err
		}
		record := entities.RunRecord{}
		if err := entities.UnmarshallRunRecord(&record, val); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// Count
// returns stored record count
func (idx *runIndex) Count() int {
	if idx.db != nil {
		return int(idx.db.Count())
	}
	return -1
}

// Close
// dispose the index and remove underlying files
func (idx *runIndex) Close() error {
	if idx.db == nil {
		return fmt.Errorf(ErrorIndexIsNil, idx.indexName)
	}
	recCnt := idx.db.Count()
	if err := idx.db.Close(); err != nil {
		return err
	}
	log.Debugf("run index %s closed (%d)", idx.indexName, recCnt)
	idx.db = nil
	if _, err := os.Stat(idx.indexDir); err == nil {
		if err := os.RemoveAll(idx.indexDir); err != nil {
			return fmt.Errorf("unable to delete run index files at '%s'. Error: %v", idx.indexDir, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("run index path does not exist '%s'. Error: %v", idx.indexDir, err)
	}
	return nil
}
