package store

import (
	"encoding/json"
	"fmt"

	"github.com/praetorian-inc/wildscan/pkg/types"
)

// encodeProvenance serializes prov into the payload column.
func encodeProvenance(prov types.Provenance) (string, error) {
	switch prov.(type) {
	case types.FileProvenance, types.GitProvenance, types.ArchiveProvenance,
		types.StreamProvenance, types.ExtendedProvenance:
	default:
		return "", fmt.Errorf("unknown provenance type: %T", prov)
	}

	data, err := json.Marshal(prov)
	if err != nil {
		return "", fmt.Errorf("marshaling provenance: %w", err)
	}
	return string(data), nil
}

// decodeProvenance is the inverse of encodeProvenance.
func decodeProvenance(kind, payload string) (types.Provenance, error) {
	var err error
	data := []byte(payload)

	switch kind {
	case "file":
		var p types.FileProvenance
		err = json.Unmarshal(data, &p)
		return p, err
	case "git":
		var p types.GitProvenance
		err = json.Unmarshal(data, &p)
		return p, err
	case "archive":
		var p types.ArchiveProvenance
		err = json.Unmarshal(data, &p)
		return p, err
	case "stream":
		var p types.StreamProvenance
		err = json.Unmarshal(data, &p)
		return p, err
	case "extended":
		var p types.ExtendedProvenance
		err = json.Unmarshal(data, &p)
		return p, err
	}
	return nil, fmt.Errorf("unknown provenance kind %q", kind)
}
