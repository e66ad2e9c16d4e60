package addressbook

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// Account is one entry of the static accounts file.
type Account struct {
	Address string `yaml:"address" json:"address"`
	Label   string `yaml:"label" json:"label"`
}

// LoadFile bulk-loads watched accounts from a YAML file into the book and
// returns the resulting watched-account count.
func LoadFile(path string, book *Book) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read accounts file: %w", err)
	}

	var accounts []Account
	if err := yaml.Unmarshal(raw, &accounts); err != nil {
		return 0, fmt.Errorf("parse accounts file: %w", err)
	}

	count := book.Len()
	for _, acc := range accounts {
		if !common.IsHexAddress(acc.Address) {
			return 0, fmt.Errorf("invalid account address: %s", acc.Address)
		}
		count = book.Add(acc.Address, acc.Label)
	}
	return count, nil
}
