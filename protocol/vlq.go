package protocol

// AppendInt appends v in the link's VLQ form: big-endian 7-bit groups,
// high bit set on every byte but the last. Values in [-32, 96) take one
// byte; bit 6 of the first group is the sign.
func AppendInt(dst []byte, v int32) []byte {
	if !(-(1<<26) <= v && v < (3<<26)) {
		dst = append(dst, byte((v>>28)&0x7F)|0x80)
	}
	if !(-(1<<19) <= v && v < (3<<19)) {
		dst = append(dst, byte((v>>21)&0x7F)|0x80)
	}
	if !(-(1<<12) <= v && v < (3<<12)) {
		dst = append(dst, byte((v>>14)&0x7F)|0x80)
	}
	if !(-(1<<5) <= v && v < (3<<5)) {
		dst = append(dst, byte((v>>7)&0x7F)|0x80)
	}
	return append(dst, byte(v&0x7F))
}

// AppendUint appends v using the same encoding as AppendInt.
func AppendUint(dst []byte, v uint32) []byte {
	return AppendInt(dst, int32(v))
}

// AppendBytes appends a length-prefixed byte string.
func AppendBytes(dst, p []byte) []byte {
	dst = AppendUint(dst, uint32(len(p)))
	return append(dst, p...)
}

// AppendString appends a length-prefixed string.
func AppendString(dst []byte, s string) []byte {
	dst = AppendUint(dst, uint32(len(s)))
	return append(dst, s...)
}

// ReadInt decodes one VLQ value and advances data past it.
func ReadInt(data *[]byte) (int32, error) {
	p := *data
	if len(p) == 0 {
		return 0, ErrBufferTooSmall
	}
	c := uint32(p[0])
	p = p[1:]
	v := c & 0x7F
	if c&0x60 == 0x60 {
		v |= ^uint32(0x1F)
	}
	for n := 1; c&0x80 != 0; n++ {
		if n == 5 {
			return 0, ErrInvalidVLQ
		}
		if len(p) == 0 {
			return 0, ErrBufferTooSmall
		}
		c = uint32(p[0])
		p = p[1:]
		v = v<<7 | c&0x7F
	}
	*data = p
	return int32(v), nil
}

// ReadUint decodes one VLQ value as unsigned.
func ReadUint(data *[]byte) (uint32, error) {
	v, err := ReadInt(data)
	return uint32(v), err
}

// ReadBytes decodes a length-prefixed byte string. The result aliases data.
func ReadBytes(data *[]byte) ([]byte, error) {
	n, err := ReadUint(data)
	if err != nil {
		return nil, err
	}
	if uint32(len(*data)) < n {
		return nil, ErrBufferTooSmall
	}
	out := (*data)[:n]
	*data = (*data)[n:]
	return out, nil
}

// ReadString decodes a length-prefixed string.
func ReadString(data *[]byte) (string, error) {
	b, err := ReadBytes(data)
	return string(b), err
}
