package billing

import (
	"sync"

	"github.com/gyeh/clinicbill/internal/model"
)

// Book holds the current patient billing list. The list is replaced
// wholesale on every fetch; individual patients are mutated copy-on-write,
// so a reader never sees a half-updated line-item slice.
type Book struct {
	mu       sync.RWMutex
	patients []*model.PatientBilling
	index    map[string]int
}

func NewBook() *Book {
	return &Book{index: make(map[string]int)}
}

// Replace swaps in a freshly normalized list. Normalization already drops
// duplicate patient ids; any that slip through keep the first occurrence
// and are counted in dropped.
func (b *Book) Replace(list []*model.PatientBilling) (dropped int) {
	patients := make([]*model.PatientBilling, 0, len(list))
	index := make(map[string]int, len(list))
	for _, pb := range list {
		if pb == nil {
			continue
		}
		if _, dup := index[pb.PatientID]; dup {
			dropped++
			continue
		}
		index[pb.PatientID] = len(patients)
		patients = append(patients, pb.Clone())
	}

	b.mu.Lock()
	b.patients = patients
	b.index = index
	b.mu.Unlock()
	return dropped
}

// Get returns a copy of one patient.
func (b *Book) Get(patientID string) (*model.PatientBilling, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	i, ok := b.index[patientID]
	if !ok {
		return nil, model.ErrPatientNotFound
	}
	return b.patients[i].Clone(), nil
}

// List returns copies of every patient in fetch order.
func (b *Book) List() []*model.PatientBilling {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*model.PatientBilling, len(b.patients))
	for i, pb := range b.patients {
		out[i] = pb.Clone()
	}
	return out
}

// Len returns the number of patients.
func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.patients)
}

// Update applies fn to a copy of the patient and publishes the copy. If fn
// returns an error nothing is published.
func (b *Book) Update(patientID string, fn func(pb *model.PatientBilling) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	i, ok := b.index[patientID]
	if !ok {
		return model.ErrPatientNotFound
	}
	next := b.patients[i].Clone()
	if err := fn(next); err != nil {
		return err
	}
	b.patients[i] = next
	return nil
}
