package detect

import (
	"os"
	"path/filepath"

	"harvester/internal/inventory"
)

// readInventoryFile loads a file's content from the working tree backing
// the inventory snapshot.
func readInventoryFile(inv *inventory.Inventory, rel string) (string, error) {
	data, err := os.ReadFile(filepath.Join(inv.Root, filepath.FromSlash(rel)))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
