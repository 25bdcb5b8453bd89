package memory

import (
	"testing"

	"github.com/workdesk/workdesk/pkg/persistence"
	"github.com/workdesk/workdesk/pkg/persistence/persistencetest"
)

func TestPersistence(t *testing.T) {
	persistencetest.Run(t, func(*testing.T) persistence.Persistence {
		return NewPersistence()
	})
}
