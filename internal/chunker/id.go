package chunker

import (
	"fmt"

	"github.com/google/uuid"
)

// idNamespace scopes chunk ids to this service. Changing it invalidates every
// previously stored id.
var idNamespace = uuid.MustParse("8f7c1c8e-3c6a-4f9b-9f21-6d2a7b1c9e44")

// DeriveID returns the content-addressed id for a (source, index) pair: a
// 128-bit MD5 digest of "<source>-<index>" rendered in UUID form (UUIDv3),
// which doubles as a valid Qdrant point id.
//
// The id is a weak dedup key: it hashes the document name and chunk position,
// not the chunk content. Re-ingesting an unchanged document overwrites the
// same entries instead of duplicating them, but two different documents
// sharing a file name collide. Callers must keep source names unique within
// the corpus.
func DeriveID(source string, index int) string {
	return uuid.NewMD5(idNamespace, []byte(fmt.Sprintf("%s-%d", source, index))).String()
}
