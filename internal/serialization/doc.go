// Package serialization provides the native .sentio archive format for
// model weights, pretrained embeddings and training checkpoints.
//
// A .sentio file is a fixed binary header, a JSON header and a data
// section:
//
//	0x00  Magic "SNTO"         otherwise rejected
//	0x04  Version (uint32 LE)  currently 1
//	0x08  Header size (uint64 LE, unpadded JSON length)
//	0x10  Data size (uint64 LE, including inter-tensor padding)
//	0x18  Reserved (zero)
//	0x20  SHA-256 over JSON header bytes + data section
//	0x40  JSON header, zero-padded to the next 64-byte boundary
//	....  Data section: raw little-endian tensors, each 64-byte aligned
//
// Tensor offsets in the JSON header are relative to the data section
// start. Tensors are written in sorted name order, so saving the same
// state twice yields byte-identical files apart from created_at.
//
// Example usage:
//
//	w, err := serialization.NewWriter("model.sentio")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = w.WriteTensors(model.StateDict(), serialization.Header{ModelType: "classifier"})
//	w.Close()
//
//	tensors, header, err := serialization.ReadFile("model.sentio")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	model.LoadStateDict(tensors)
package serialization
