package target

import (
	"fmt"

	"ccd/internal/usbtransport"
)

// Protocol literals from the probe's synthesized-instruction framing.
// These are byte-for-byte fixed: the preamble and postamble prime and
// retire the probe firmware's debug-interface driver, and the DPTR
// fragment and per-byte bodies are 8051 instruction encodings the probe
// clocks onto the target's two-wire debug link.
var (
	preamble = []byte{
		0x40, 0x55, 0x00, 0x72, 0x56, 0xe5, 0x92, 0xbe,
		0x57, 0x75, 0x92, 0x00, 0x74, 0x56, 0xe5, 0x83,
		0x76, 0x56, 0xe5, 0x82,
	}
	postamble = []byte{
		0xd4, 0x57, 0x90, 0xc2, 0x57, 0x75, 0x92, 0x90,
		0x56, 0x74,
	}

	// movDPTROpcode, movDPTRReg, movDPTRInstr are the fixed bytes
	// preceding the patched address in the "MOV DPTR,#addr16" fragment.
	movDPTROpcode = byte(0xbe)
	movDPTRReg    = byte(0x57)
	movDPTRInstr  = byte(0x90)

	// movxRead*, incDPTR*, movAImm* and movxWrite* are the fixed bytes of
	// the per-byte fragments. Only the first byte of the MOVX read varies
	// (movxReadLast/movxReadLastOnly below, 0x4E/0x4F); the MOVX write and
	// INC DPTR in both bodies never vary.
	movxReadMid  = byte(0x55)
	movxReadOp   = byte(0xE0)
	incDPTRHi    = byte(0x5E)
	incDPTRMid   = byte(0x55)
	incDPTROp    = byte(0xA3)
	movAImmHi    = byte(0x8E)
	movAImmMid   = byte(0x56)
	movAImmOp    = byte(0x74)
	movxWriteHi  = byte(0x5E)
	movxWriteMid = byte(0x55)
	movxWriteOp  = byte(0xF0)

	movxReadLast     = byte(0x4E)
	movxReadLastOnly = byte(0x4F)
)

const (
	preambleLen  = 20
	dptrFragLen  = 5
	readFragLen  = 6
	writeFragLen = 9
	postambleLen = 10
)

// ReadXData synthesizes a target xdata read of n bytes starting at addr:
// one bulk OUT carrying preamble + MOV-DPTR fragment + n read fragments +
// postamble, then one bulk IN returning exactly n bytes. The last read
// fragment's MOVX opcode is 0x4F instead of 0x4E, signalling the probe to
// capture that byte back to the host.
func ReadXData(dev usbtransport.Device, buf *CommandBuffer, addr uint16, n int) ([]byte, error) {
	if n < 1 {
		return nil, fmt.Errorf("read_xdata: length must be >= 1")
	}

	buf.Reset()
	buf.Add(preamble...)
	buf.Add(movDPTROpcode, movDPTRReg, movDPTRInstr, byte(addr>>8), byte(addr&0xFF))
	for i := 0; i < n; i++ {
		op := movxReadLast
		if i == n-1 {
			op = movxReadLastOnly
		}
		buf.Add(op, movxReadMid, movxReadOp)
		buf.Add(incDPTRHi, incDPTRMid, incDPTROp)
	}
	buf.Add(postamble...)

	wantLen := preambleLen + dptrFragLen + readFragLen*n + postambleLen
	if buf.Len() != wantLen {
		return nil, fmt.Errorf("read_xdata: internal framing error: got %d bytes want %d", buf.Len(), wantLen)
	}

	if err := dev.Bulk(usbtransport.Out, buf.Bytes()); err != nil {
		return nil, fmt.Errorf("read_xdata addr=0x%04x n=%d: %w", addr, n, err)
	}

	resp := make([]byte, n)
	if err := dev.Bulk(usbtransport.In, resp); err != nil {
		return nil, fmt.Errorf("read_xdata addr=0x%04x n=%d: %w", addr, n, err)
	}
	return resp, nil
}

// WriteXData synthesizes a target xdata write of data starting at addr:
// one bulk OUT carrying preamble + MOV-DPTR fragment + one write fragment
// per data byte + postamble. No response follows.
func WriteXData(dev usbtransport.Device, buf *CommandBuffer, addr uint16, data []byte) error {
	buf.Reset()
	buf.Add(preamble...)
	buf.Add(movDPTROpcode, movDPTRReg, movDPTRInstr, byte(addr>>8), byte(addr&0xFF))
	for _, b := range data {
		buf.Add(movAImmHi, movAImmMid, movAImmOp, b)
		buf.Add(movxWriteHi, movxWriteMid, movxWriteOp)
		buf.Add(incDPTRHi, incDPTRMid, incDPTROp)
	}
	buf.Add(postamble...)

	wantLen := preambleLen + dptrFragLen + writeFragLen*len(data) + postambleLen
	if buf.Len() != wantLen {
		return fmt.Errorf("write_xdata: internal framing error: got %d bytes want %d", buf.Len(), wantLen)
	}

	if err := dev.Bulk(usbtransport.Out, buf.Bytes()); err != nil {
		return fmt.Errorf("write_xdata addr=0x%04x n=%d: %w", addr, len(data), err)
	}
	return nil
}
