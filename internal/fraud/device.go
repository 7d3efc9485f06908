package fraud

import (
	"fmt"

	"github.com/google/uuid"

	"vatfiler/internal/storage"
	"vatfiler/pkg/logging"
)

// Device id modes.
const (
	ModePerProcess = "per-process"
	ModePersistent = "persistent"
)

type deviceRecord struct {
	DeviceID string `json:"device_id"`
}

// DeviceID returns the device identifier for mode. In per-process mode a
// new UUID is generated on every start. In persistent mode the identifier
// is read from path, or generated and written there on first use.
func DeviceID(mode, path string) (string, error) {
	switch mode {
	case ModePerProcess, "":
		id := uuid.NewString()
		logging.Debug("Fraud", "Generated per-process device id %s", logging.Truncate(id))
		return id, nil
	case ModePersistent:
		return persistentDeviceID(path)
	default:
		return "", fmt.Errorf("unknown device id mode %q", mode)
	}
}

func persistentDeviceID(path string) (string, error) {
	file := storage.NewJSONFile(path)

	var record deviceRecord
	var id string
	err := file.Update(&record, func(found bool) (interface{}, error) {
		if found {
			if _, err := uuid.Parse(record.DeviceID); err == nil {
				id = record.DeviceID
				return nil, nil
			}
			logging.Warn("Fraud", "Ignoring invalid device id in %s", path)
		}
		id = uuid.NewString()
		logging.Info("Fraud", "Created persistent device id %s in %s", logging.Truncate(id), path)
		return deviceRecord{DeviceID: id}, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to load device id: %w", err)
	}
	return id, nil
}
