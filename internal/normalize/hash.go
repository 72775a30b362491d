package normalize

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/gyeh/clinicbill/internal/model"
)

// DerivedID builds a stable identifier for a line item the backend sent
// without one. The id depends only on the patient, kind, position and
// identifying values, so refetching the same payload yields the same id.
func DerivedID(patientID string, kind model.Kind, index int, values ...string) string {
	h := sha256.New()
	h.Write([]byte(patientID))
	h.Write([]byte{0})
	h.Write([]byte(kind))
	h.Write([]byte{0})
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(index))
	h.Write(buf)
	for _, v := range values {
		h.Write([]byte(strings.TrimSpace(v)))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%s-%x", kind, h.Sum(nil)[:6])
}
