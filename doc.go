// Package blocky packs many independent files into a single block file and
// provides zero-copy random access to them.
//
// A block starts with a compact header listing every member's id, size,
// offset and location hash. Each member follows at a 1024-byte aligned
// offset, prefixed by a small sub-header carrying the MD5 of its content
// and its original location:
//
//	version      u16
//	entry_count  u32
//	entries      entry_count x {id u64, size u32, offset u32, location_hash [16]byte}
//	...zero padding to the next 1024-byte boundary...
//	member       {content_hash [16]byte, location_len u16, location, content}
//
// All integers are little-endian. Blocks are written once and never
// modified afterwards.
//
// # Building
//
// Build writes a block from files on disk and returns it opened:
//
//	b, err := blocky.Build(ctx, "data.blk", []blocky.AddFileRequest{
//	    {ID: 1, Path: "./1.bin", Location: "/1.bin"},
//	    {ID: 2, Path: "./2.bin", Location: "/2.bin"},
//	})
//	if err != nil {
//	    return err
//	}
//	defer b.Close()
//
// The target must not exist. Every offset is computed before the file is
// created, and a failed build never leaves a partial block behind.
//
// # Reading
//
// Open maps a block read-only. Member content is returned as a slice of the
// mapping, valid until Close:
//
//	b, err := blocky.Open("data.blk")
//	if err != nil {
//	    return err
//	}
//	defer b.Close()
//
//	hdr, content, err := b.FileByLocation("/2.bin")
//
// Use Verify or VerifyAll to check member content against the stored hashes.
package blocky
