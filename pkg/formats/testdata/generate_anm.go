//go:build ignore

// This program generates a test BT3 animation file for unit tests.
// Run with: go run generate_anm.go
package main

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
)

func main() {
	// 30 frames, bone 2 rotation-only, bone 10 translated
	var buf bytes.Buffer

	// Header
	binary.Write(&buf, binary.LittleEndian, uint16(3))  // magic
	binary.Write(&buf, binary.LittleEndian, uint16(30)) // frame count
	pointers := make([]uint16, 56)
	pointers[2] = 116 / 4  // first body right after the header
	pointers[10] = 152 / 4 // 116 + 4 + 3*8 + 3*2 + 2 (pad)
	binary.Write(&buf, binary.LittleEndian, pointers)

	// Bone 2: type 1, 3 keyframes
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(3))
	for i := 0; i < 3; i++ {
		buf.Write([]byte{byte(i), 0x10, 0x20, 0x30, 0x40, 0x50, 0x60, 0x70})
	}
	binary.Write(&buf, binary.LittleEndian, []uint16{0, 10, 30})
	binary.Write(&buf, binary.LittleEndian, uint16(0)) // odd count pad

	// Bone 10: type 0, 2 keyframes
	binary.Write(&buf, binary.LittleEndian, uint16(0))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	for i, ts := range []uint32{0, 30} {
		for _, v := range []float32{float32(i), 1.5, -2} {
			binary.Write(&buf, binary.LittleEndian, math.Float32bits(v))
		}
		binary.Write(&buf, binary.LittleEndian, ts)
		buf.Write([]byte{0xA0, 0xA1, 0xA2, 0xA3, 0xA4, 0xA5, 0xA6, byte(i)})
	}

	// Pad to 16 bytes
	for buf.Len()%16 != 0 {
		buf.WriteByte(0)
	}

	if err := os.WriteFile("test.unk", buf.Bytes(), 0644); err != nil {
		panic(err)
	}
	println("Generated test.unk:", buf.Len(), "bytes")
}
