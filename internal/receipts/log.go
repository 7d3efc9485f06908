package receipts

import (
	"encoding/json"
	"fmt"

	"vatfiler/internal/storage"
	"vatfiler/pkg/logging"
)

// Log is the append-only receipt file.
type Log struct {
	file *storage.JSONFile
}

// NewLog returns a Log stored at path. The file is created on first append.
func NewLog(path string) *Log {
	return &Log{file: storage.NewJSONFile(path)}
}

// Path returns the receipt file location.
func (l *Log) Path() string {
	return l.file.Path()
}

// Append records a submission. The whole file is read, extended and
// rewritten atomically; appends within this process are serialised.
func (l *Log) Append(vrn string, periodKey *string, response json.RawMessage) error {
	receipt, err := New(vrn, periodKey, response)
	if err != nil {
		return fmt.Errorf("failed to build receipt: %w", err)
	}

	var existing []Receipt
	err = l.file.Update(&existing, func(bool) (interface{}, error) {
		return append(existing, receipt), nil
	})
	if err != nil {
		return fmt.Errorf("failed to append receipt: %w", err)
	}

	logging.Info("Receipts", "Recorded receipt for VRN %s period %s", vrn, describePeriod(periodKey))
	return nil
}

// List returns every stored receipt in append order. An absent file yields
// an empty slice.
func (l *Log) List() ([]Receipt, error) {
	var all []Receipt
	if _, err := l.file.Read(&all); err != nil {
		return nil, fmt.Errorf("failed to read receipts: %w", err)
	}
	if all == nil {
		all = []Receipt{}
	}
	return all, nil
}

// ListForVRN returns the receipts of one VRN in append order.
func (l *Log) ListForVRN(vrn string) ([]Receipt, error) {
	all, err := l.List()
	if err != nil {
		return nil, err
	}
	filtered := make([]Receipt, 0, len(all))
	for _, r := range all {
		if r.VRN == vrn {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

func describePeriod(periodKey *string) string {
	if periodKey == nil {
		return "(none)"
	}
	return *periodKey
}
