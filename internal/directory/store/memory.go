package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"bloodlink/internal/directory"
)

// Memory is an in-memory directory store for tests.
type Memory struct {
	mu     sync.RWMutex
	donors []directory.DonorEntry
	banks  []directory.BloodBankEntry
}

// NewMemory builds an empty store.
func NewMemory() *Memory {
	return &Memory{}
}

// AddDonor seeds a donor entry.
func (s *Memory) AddDonor(d directory.DonorEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.donors = append(s.donors, d)
}

// AddBloodBank seeds a blood bank entry.
func (s *Memory) AddBloodBank(b directory.BloodBankEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.banks = append(s.banks, b)
}

// FindDonors matches city case-insensitively, optionally by blood type.
func (s *Memory) FindDonors(_ context.Context, city, bloodType string) ([]directory.DonorEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []directory.DonorEntry
	for _, d := range s.donors {
		if !strings.EqualFold(d.City, city) {
			continue
		}
		if bloodType != "" && d.BloodType != bloodType {
			continue
		}
		matched = append(matched, d)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
	return matched, nil
}

// FindBloodBanks matches city case-insensitively.
func (s *Memory) FindBloodBanks(_ context.Context, city string) ([]directory.BloodBankEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []directory.BloodBankEntry
	for _, b := range s.banks {
		if strings.EqualFold(b.City, city) {
			matched = append(matched, b)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
	return matched, nil
}
