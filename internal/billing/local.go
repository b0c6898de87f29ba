package billing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// LocalProvider records purchases in a plain text file, one token per line.
// It stands in for a real platform billing client on a single machine:
// every purchase succeeds and restore replays whatever the file holds.
type LocalProvider struct {
	mu   sync.Mutex
	path string
}

func NewLocalProvider(path string) *LocalProvider {
	return &LocalProvider{path: path}
}

func (p *LocalProvider) PurchasePremium(ctx context.Context) (Purchase, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(p.path), 0755); err != nil {
		return Purchase{}, fmt.Errorf("create billing directory: %w", err)
	}

	token := "eg-" + uuid.NewString()
	f, err := os.OpenFile(p.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return Purchase{}, fmt.Errorf("open billing file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(token + "\n"); err != nil {
		return Purchase{}, fmt.Errorf("record purchase: %w", err)
	}
	return Purchase{Token: token, State: StatePurchased}, nil
}

func (p *LocalProvider) ListExistingPurchases(ctx context.Context) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := os.ReadFile(p.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read billing file: %w", err)
	}

	var tokens []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			tokens = append(tokens, line)
		}
	}
	return tokens, nil
}
