package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashRecords 返回表头与记录的稳定 SHA-256，用于比较两次导出内容是否一致。
// 字段之间与记录之间使用不同的分隔字节，避免 ["ab","c"] 与 ["a","bc"] 冲突。
func HashRecords(header []string, records [][]string) string {
	h := sha256.New()
	writeRecord := func(rec []string) {
		for _, field := range rec {
			h.Write([]byte(field))
			h.Write([]byte{0x1f})
		}
		h.Write([]byte{0x1e})
	}
	writeRecord(header)
	for _, rec := range records {
		writeRecord(rec)
	}
	return hex.EncodeToString(h.Sum(nil))
}
