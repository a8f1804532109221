// ABOUTME: Synthetic module builders for tests
// ABOUTME: Produces small valid MOD, S3M and XM files in memory
// Package trackertest builds tiny but valid tracker modules for tests.
//
// Every module has one pattern played Orders times. Row 0 of channel 0
// triggers a looping square wave on instrument 1 at middle C and sets the
// speed. When Rows is between 1 and 63, a pattern break on row Rows-1 ends
// the pattern early so end-of-song is reached quickly.
package trackertest

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Options controls the generated module
type Options struct {
	Title    string
	Channels int // default 4
	Orders   int // default 1
	Speed    int // default 6
	Rows     int // rows before the pattern break, 0 = full pattern
}

func (o Options) withDefaults() Options {
	if o.Title == "" {
		o.Title = "test song"
	}
	if o.Channels <= 0 {
		o.Channels = 4
	}
	if o.Orders <= 0 {
		o.Orders = 1
	}
	if o.Speed <= 0 {
		o.Speed = 6
	}
	return o
}

func (o Options) breakRow() int {
	if o.Rows > 0 && o.Rows < 64 {
		return o.Rows - 1
	}
	return -1
}

// SampleName is the name given to the single sample/instrument
const SampleName = "square"

const squareLen = 64

func fixed(s string, n int) []byte {
	b := make([]byte, n)
	copy(b, s)
	return b
}

func put(buf *bytes.Buffer, v interface{}) {
	_ = binary.Write(buf, binary.LittleEndian, v)
}

// MOD builds a Protracker module
func MOD(o Options) []byte {
	o = o.withDefaults()
	var buf bytes.Buffer
	buf.Write(fixed(o.Title, 20))

	for i := 0; i < 31; i++ {
		if i == 0 {
			buf.Write(fixed(SampleName, 22))
			_ = binary.Write(&buf, binary.BigEndian, uint16(squareLen/2))
			buf.WriteByte(0)  // finetune
			buf.WriteByte(64) // volume
			_ = binary.Write(&buf, binary.BigEndian, uint16(0))
			_ = binary.Write(&buf, binary.BigEndian, uint16(squareLen/2))
			continue
		}
		buf.Write(make([]byte, 22))
		_ = binary.Write(&buf, binary.BigEndian, uint16(0))
		buf.WriteByte(0)
		buf.WriteByte(0)
		_ = binary.Write(&buf, binary.BigEndian, uint16(0))
		_ = binary.Write(&buf, binary.BigEndian, uint16(1))
	}

	buf.WriteByte(byte(o.Orders))
	buf.WriteByte(127)
	buf.Write(make([]byte, 128))

	switch o.Channels {
	case 4:
		buf.WriteString("M.K.")
	case 6, 8:
		buf.WriteString(fmt.Sprintf("%dCHN", o.Channels))
	default:
		buf.WriteString(fmt.Sprintf("%02dCH", o.Channels))
	}

	pattern := make([]byte, 64*o.Channels*4)
	// C-2 period 428 = 0x1AC, sample 1, Fxx speed
	pattern[0] = 0x01
	pattern[1] = 0xAC
	pattern[2] = 0x1F
	pattern[3] = byte(o.Speed)
	if row := o.breakRow(); row >= 0 {
		cell := (row*o.Channels + 1) * 4
		pattern[cell+2] = 0x0D
	}
	buf.Write(pattern)
	buf.Write(square(true))

	return buf.Bytes()
}

// S3M builds a ScreamTracker 3 module
func S3M(o Options) []byte {
	o = o.withDefaults()

	ordNum := o.Orders + 1
	if ordNum%2 != 0 {
		ordNum++
	}
	align := func(n int) int { return (n + 15) &^ 15 }
	insOff := align(0x60 + ordNum + 4)
	patOff := align(insOff + 0x50)

	var pat bytes.Buffer
	pat.Write([]byte{0x20 | 0x80, 0x40, 1, 1, byte(o.Speed)}) // ch0: C-4 ins 1, Axx
	pat.WriteByte(0)
	for row := 1; row < 64; row++ {
		if row == o.breakRow() {
			pat.Write([]byte{0x80 | 1, 3, 0}) // ch1: C00
		}
		pat.WriteByte(0)
	}
	if o.breakRow() == 0 {
		// break on the first row shares row 0
		pat.Reset()
		pat.Write([]byte{0x20 | 0x80, 0x40, 1, 1, byte(o.Speed)})
		pat.Write([]byte{0x80 | 1, 3, 0})
		for row := 0; row < 64; row++ {
			pat.WriteByte(0)
		}
	}
	smpOff := align(patOff + 2 + pat.Len())

	data := make([]byte, smpOff+squareLen)
	copy(data, fixed(o.Title, 28))
	data[0x1C] = 0x1A
	data[0x1D] = 16
	binary.LittleEndian.PutUint16(data[0x20:], uint16(ordNum))
	binary.LittleEndian.PutUint16(data[0x22:], 1)
	binary.LittleEndian.PutUint16(data[0x24:], 1)
	binary.LittleEndian.PutUint16(data[0x28:], 0x1320)
	binary.LittleEndian.PutUint16(data[0x2A:], 2)
	copy(data[0x2C:], "SCRM")
	data[0x30] = 64
	data[0x31] = byte(o.Speed)
	data[0x32] = 125
	data[0x33] = 0x80 | 48
	for ch := 0; ch < 32; ch++ {
		switch {
		case ch >= o.Channels:
			data[0x40+ch] = 255
		case ch%2 == 0:
			data[0x40+ch] = byte(ch / 2)
		default:
			data[0x40+ch] = byte(8 + ch/2)
		}
	}
	for i := 0; i < ordNum; i++ {
		if i < o.Orders {
			data[0x60+i] = 0
		} else {
			data[0x60+i] = 255
		}
	}
	binary.LittleEndian.PutUint16(data[0x60+ordNum:], uint16(insOff/16))
	binary.LittleEndian.PutUint16(data[0x60+ordNum+2:], uint16(patOff/16))

	ins := data[insOff:]
	ins[0] = 1
	copy(ins[1:], fixed("square.raw", 12))
	ins[0x0D] = byte((smpOff / 16) >> 16)
	binary.LittleEndian.PutUint16(ins[0x0E:], uint16(smpOff/16))
	binary.LittleEndian.PutUint32(ins[0x10:], squareLen)
	binary.LittleEndian.PutUint32(ins[0x14:], 0)
	binary.LittleEndian.PutUint32(ins[0x18:], squareLen)
	ins[0x1C] = 64
	ins[0x1F] = 1
	binary.LittleEndian.PutUint32(ins[0x20:], 8363)
	copy(ins[0x30:], fixed(SampleName, 28))
	copy(ins[0x4C:], "SCRS")

	binary.LittleEndian.PutUint16(data[patOff:], uint16(pat.Len()+2))
	copy(data[patOff+2:], pat.Bytes())

	sq := square(false)
	copy(data[smpOff:], sq)
	return data
}

// XM builds a Fasttracker 2 module
func XM(o Options) []byte {
	o = o.withDefaults()
	var buf bytes.Buffer
	buf.WriteString("Extended Module: ")
	buf.Write(fixed(o.Title, 20))
	buf.WriteByte(0x1A)
	buf.Write(fixed("FastTracker v2.00", 20))
	put(&buf, uint16(0x0104))
	put(&buf, uint32(276))
	put(&buf, uint16(o.Orders))
	put(&buf, uint16(0))
	put(&buf, uint16(o.Channels))
	put(&buf, uint16(1)) // patterns
	put(&buf, uint16(1)) // instruments
	put(&buf, uint16(1)) // linear frequencies
	put(&buf, uint16(o.Speed))
	put(&buf, uint16(125))
	buf.Write(make([]byte, 256))

	var pat bytes.Buffer
	for row := 0; row < 64; row++ {
		for ch := 0; ch < o.Channels; ch++ {
			switch {
			case row == 0 && ch == 0:
				pat.Write([]byte{0x80 | 0x01 | 0x02 | 0x08 | 0x10, 49, 1, 0x0F, byte(o.Speed)})
			case row == o.breakRow() && ch == 1:
				pat.Write([]byte{0x80 | 0x08 | 0x10, 0x0D, 0})
			default:
				pat.WriteByte(0x80)
			}
		}
	}
	put(&buf, uint32(9))
	buf.WriteByte(0)
	put(&buf, uint16(64))
	put(&buf, uint16(pat.Len()))
	buf.Write(pat.Bytes())

	inst := make([]byte, 263)
	binary.LittleEndian.PutUint32(inst[0:], 263)
	copy(inst[4:], fixed(SampleName, 22))
	binary.LittleEndian.PutUint16(inst[27:], 1)
	binary.LittleEndian.PutUint32(inst[29:], 40)
	buf.Write(inst)

	put(&buf, uint32(squareLen))
	put(&buf, uint32(0))
	put(&buf, uint32(squareLen))
	buf.WriteByte(64)  // volume
	buf.WriteByte(0)   // finetune
	buf.WriteByte(1)   // forward loop, 8-bit
	buf.WriteByte(128) // panning
	buf.WriteByte(0)   // relative note
	buf.WriteByte(0)
	buf.Write(fixed(SampleName, 22))

	var prev int8
	for _, b := range square(true) {
		v := int8(b)
		buf.WriteByte(byte(v - prev))
		prev = v
	}

	return buf.Bytes()
}

// square returns one period of an 8-bit square wave
func square(signed bool) []byte {
	out := make([]byte, squareLen)
	for i := range out {
		hi, lo := byte(0x40), byte(0xC0)
		if !signed {
			hi, lo = 0xC0, 0x40
		}
		if i < squareLen/2 {
			out[i] = hi
		} else {
			out[i] = lo
		}
	}
	return out
}
