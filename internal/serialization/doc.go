// Package serialization implements the .born v2 format used for weight blobs.
//
//	Format Structure:
//	  [64 bytes: fixed header]
//	    0x00  magic "BORN"
//	    0x04  version (uint32 LE, always 2)
//	    0x08  flags (uint32 LE)
//	    0x10  header size (uint64 LE)
//	    0x18  data size (uint64 LE)
//	    0x20  SHA-256 of the tensor data section
//	  [Header: JSON metadata]
//	  [padding to a 64-byte boundary]
//	  [Tensor data: float64 little-endian, tensors in name order]
//
// Readers verify the checksum before any tensor is handed out, so a truncated
// or partially written file is rejected as a whole.
//
// Example usage:
//
//	err := serialization.WriteFile("gen.born", stateDict, serialization.Header{ModelType: "generator"})
//	dict, header, err := serialization.ReadFile("gen.born")
package serialization
