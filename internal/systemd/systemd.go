// Package systemd wraps the external process manager's unit surface.
//
// The orchestrator never mutates backup state directly; every unit it
// coordinates is a systemd service that it can start, stop, and query over
// D-Bus. This package isolates that surface behind the UnitSource interface
// so the coordination logic can run against an in-memory fake in tests.
package systemd

import (
	"context"
	"fmt"
	"sort"

	"github.com/coreos/go-systemd/v22/dbus"
)

// ResultSuccess is the service Result value systemd reports for a unit that
// exited cleanly. Any other value is a failure classification.
const ResultSuccess = "success"

// startMode is the job mode used for start/stop requests. "replace" queues
// the job even if a conflicting one exists; the orchestrator relies on its
// own poll loop rather than the systemd job channel.
const startMode = "replace"

// UnitSource is the external surface every discovered unit must support.
type UnitSource interface {
	// List returns the names of units matching the glob pattern, sorted.
	List(ctx context.Context, pattern string) ([]string, error)

	// Start triggers the unit without waiting for completion.
	Start(ctx context.Context, name string) error

	// Stop issues a best-effort stop request.
	Stop(ctx context.Context, name string) error

	// IsActive reports whether the unit is currently active (running,
	// activating, reloading, or deactivating).
	IsActive(ctx context.Context, name string) (bool, error)

	// Result returns the unit's terminal result string ("success" on a
	// clean exit).
	Result(ctx context.Context, name string) (string, error)
}

// DBusAPI is the subset of *dbus.Conn the source uses.
type DBusAPI interface {
	ListUnitsByPatternsContext(ctx context.Context, states []string, patterns []string) ([]dbus.UnitStatus, error)
	StartUnitContext(ctx context.Context, name string, mode string, ch chan<- string) (int, error)
	StopUnitContext(ctx context.Context, name string, mode string, ch chan<- string) (int, error)
	GetUnitPropertiesContext(ctx context.Context, unit string) (map[string]interface{}, error)
	GetUnitTypePropertiesContext(ctx context.Context, unit string, unitType string) (map[string]interface{}, error)
	Close()
}

// NewDBusAPI is the factory used to open the system bus connection. It is a
// variable so tests can substitute a stub.
var NewDBusAPI = func(ctx context.Context) (DBusAPI, error) {
	return dbus.NewSystemConnectionContext(ctx)
}

// DBusSource implements UnitSource against the local systemd instance.
type DBusSource struct {
	conn DBusAPI
}

// NewDBusSource opens a connection to the system bus.
func NewDBusSource(ctx context.Context) (*DBusSource, error) {
	conn, err := NewDBusAPI(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect to systemd: %w", err)
	}
	return &DBusSource{conn: conn}, nil
}

// Close releases the D-Bus connection.
func (s *DBusSource) Close() {
	if s.conn != nil {
		s.conn.Close()
	}
}

// List implements UnitSource.
func (s *DBusSource) List(ctx context.Context, pattern string) ([]string, error) {
	units, err := s.conn.ListUnitsByPatternsContext(ctx, nil, []string{pattern})
	if err != nil {
		return nil, fmt.Errorf("list units matching %q: %w", pattern, err)
	}

	names := make([]string, 0, len(units))
	for _, unit := range units {
		names = append(names, unit.Name)
	}
	sort.Strings(names)
	return names, nil
}

// Start implements UnitSource.
func (s *DBusSource) Start(ctx context.Context, name string) error {
	if _, err := s.conn.StartUnitContext(ctx, name, startMode, nil); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}
	return nil
}

// Stop implements UnitSource.
func (s *DBusSource) Stop(ctx context.Context, name string) error {
	if _, err := s.conn.StopUnitContext(ctx, name, startMode, nil); err != nil {
		return fmt.Errorf("stop %s: %w", name, err)
	}
	return nil
}

// IsActive implements UnitSource.
func (s *DBusSource) IsActive(ctx context.Context, name string) (bool, error) {
	props, err := s.conn.GetUnitPropertiesContext(ctx, name)
	if err != nil {
		return false, fmt.Errorf("query %s: %w", name, err)
	}

	state, _ := props["ActiveState"].(string)
	switch state {
	case "active", "activating", "reloading", "deactivating":
		return true, nil
	}
	return false, nil
}

// Result implements UnitSource.
func (s *DBusSource) Result(ctx context.Context, name string) (string, error) {
	props, err := s.conn.GetUnitTypePropertiesContext(ctx, name, "Service")
	if err != nil {
		return "", fmt.Errorf("query result of %s: %w", name, err)
	}

	result, ok := props["Result"].(string)
	if !ok {
		return "", fmt.Errorf("unit %s has no service result", name)
	}
	return result, nil
}
