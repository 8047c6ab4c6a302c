package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/i474232898/metar-weather-bot/internal/weather"
)

var (
	// ErrNotFound is returned when the requested snapshot has not been written yet.
	ErrNotFound = errors.New("snapshot not found")
)

// Snapshot file names inside the data directory.
const (
	RawReportFile   = "latest.txt"
	ObservationFile = "latest.json"
	ImageFile       = "latest.jpg"
	AirQualityFile  = "airnow.json"
)

// FileStore keeps the latest snapshot of each kind as a flat file. Every
// write replaces the previous file through a rename, so readers never see a
// half-written snapshot.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) SaveRawReport(text string) error {
	return s.write(RawReportFile, func(w io.Writer) error {
		_, err := io.WriteString(w, text)
		return err
	})
}

func (s *FileStore) LoadRawReport() (string, error) {
	b, err := s.read(RawReportFile)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *FileStore) SaveObservation(obs weather.Observation) error {
	return s.write(ObservationFile, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(obs)
	})
}

func (s *FileStore) LoadObservation() (weather.Observation, error) {
	b, err := s.read(ObservationFile)
	if err != nil {
		return weather.Observation{}, err
	}
	var obs weather.Observation
	if err := json.Unmarshal(b, &obs); err != nil {
		return weather.Observation{}, fmt.Errorf("decoding %s: %w", ObservationFile, err)
	}
	return obs, nil
}

// SaveImage hands write a temporary file; the previous image is replaced only
// if write succeeds.
func (s *FileStore) SaveImage(write func(w io.Writer) error) error {
	return s.write(ImageFile, write)
}

func (s *FileStore) LoadImage() ([]byte, error) {
	return s.read(ImageFile)
}

// SaveAirQuality persists the payload verbatim.
func (s *FileStore) SaveAirQuality(raw []byte) error {
	return s.write(AirQualityFile, func(w io.Writer) error {
		_, err := w.Write(raw)
		return err
	})
}

func (s *FileStore) LoadAirQuality() ([]weather.AirQualityReading, error) {
	b, err := s.read(AirQualityFile)
	if err != nil {
		return nil, err
	}
	return weather.DecodeAirQuality(b)
}

func (s *FileStore) write(name string, fill func(w io.Writer) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if err := fill(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

func (s *FileStore) read(name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return b, nil
}

var _ weather.Store = (*FileStore)(nil)
