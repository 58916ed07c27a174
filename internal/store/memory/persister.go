package memory

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/darkkaiser/price-tracker/pkg/concurrency"
	"github.com/iancoleman/strcase"
)

const tempFilePattern = "collection-*.tmp"

// persister 컬렉션을 '<kebab-case 이름>.json' 파일로 기록합니다.
type persister struct {
	dir   string
	locks *concurrency.KeyedMutex[string]
}

func newPersister(dir string) (*persister, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, newErrDirectoryAccessFailed(err, dir)
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return nil, newErrDirectoryAccessFailed(err, absDir)
	}

	return &persister{
		dir:   absDir,
		locks: concurrency.NewKeyedMutex[string](),
	}, nil
}

func (p *persister) filename(collection string) string {
	return filepath.Join(p.dir, strcase.ToKebab(collection)+".json")
}

func (p *persister) load(collection string) ([]json.RawMessage, error) {
	filename := p.filename(collection)

	var data []byte
	err := p.locks.WithLock(strings.ToLower(filename), func() error {
		var readErr error
		data, readErr = os.ReadFile(filename)
		return readErr
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, newErrFileReadFailed(err, filename)
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, newErrDecodeFailed(err, collection)
	}
	return raws, nil
}

// save 임시 파일에 기록한 뒤 rename으로 교체하여, 중간에 중단되어도 이전 파일이 온전히 남도록 합니다.
func (p *persister) save(collection string, raws []json.RawMessage) error {
	data, err := json.MarshalIndent(raws, "", "\t")
	if err != nil {
		return newErrEncodeFailed(err, collection)
	}

	filename := p.filename(collection)
	return p.locks.WithLock(strings.ToLower(filename), func() error {
		tmp, err := os.CreateTemp(p.dir, tempFilePattern)
		if err != nil {
			return newErrFileWriteFailed(err, filename)
		}
		tmpName := tmp.Name()

		success := false
		defer func() {
			if !success {
				_ = tmp.Close()
				_ = os.Remove(tmpName)
			}
		}()

		if _, err := tmp.Write(data); err != nil {
			return newErrFileWriteFailed(err, filename)
		}
		if err := tmp.Sync(); err != nil {
			return newErrFileWriteFailed(err, filename)
		}
		if err := tmp.Close(); err != nil {
			return newErrFileWriteFailed(err, filename)
		}
		if err := os.Rename(tmpName, filename); err != nil {
			return newErrFileWriteFailed(err, filename)
		}

		success = true
		return nil
	})
}
