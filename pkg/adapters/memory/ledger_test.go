package memory_test

import (
	"testing"

	"github.com/aretw0/meshpanel/pkg/adapters/memory"
	"github.com/aretw0/meshpanel/pkg/ports/tests"
)

func TestMemoryLedger_Contract(t *testing.T) {
	tests.RunLedgerStoreContract(t, memory.NewLedger())
}
