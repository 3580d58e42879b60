package benchmark

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/chatvault/chatvault-go/pkg/crypto/adaptive"
)

// BenchmarkSealRecord benchmarks sealing a serialized record the way
// the encrypted store does before each write.
func BenchmarkSealRecord(b *testing.B) {
	cipher, err := adaptive.NewFromPassphrase("benchmark-passphrase", []byte("chatvault/storage/v1"))
	if err != nil {
		b.Fatalf("cipher: %v", err)
	}

	for _, count := range MessageCounts {
		b.Run(fmt.Sprintf("messages_%d", count), func(b *testing.B) {
			record := benchRecord(b, 0, 1700000000000, count)
			payload, err := json.Marshal(record)
			if err != nil {
				b.Fatal(err)
			}
			aad := []byte(record.ConversationIdentity)

			b.SetBytes(int64(len(payload)))
			b.ResetTimer()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := cipher.Encrypt(payload, aad); err != nil {
					b.Fatalf("Encrypt: %v", err)
				}
			}
		})
	}
}

// BenchmarkOpenRecord benchmarks the decrypt side of a read.
func BenchmarkOpenRecord(b *testing.B) {
	cipher, err := adaptive.NewFromPassphrase("benchmark-passphrase", []byte("chatvault/storage/v1"))
	if err != nil {
		b.Fatalf("cipher: %v", err)
	}

	record := benchRecord(b, 0, 1700000000000, 100)
	payload, err := json.Marshal(record)
	if err != nil {
		b.Fatal(err)
	}
	aad := []byte(record.ConversationIdentity)
	sealed, err := cipher.Encrypt(payload, aad)
	if err != nil {
		b.Fatal(err)
	}

	b.SetBytes(int64(len(payload)))
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := cipher.Decrypt(sealed, aad); err != nil {
			b.Fatalf("Decrypt: %v", err)
		}
	}
}
