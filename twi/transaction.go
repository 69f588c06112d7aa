package twi

import "avrkit/core"

// Transaction is one master-mode exchange with a slave. For reads, Data
// is filled in place and its length is the number of bytes requested.
type Transaction struct {
	Address uint8
	Dir     Direction
	Data    []byte
}

// Exec runs the transaction, checking the status after every step.
// STOP is sent only on success; on failure the bus is left as the
// hardware reports it and the next START recovers it.
func (b *Bus) Exec(tx *Transaction) error {
	if err := b.start(); err != nil {
		return err
	}
	if err := b.address(tx.Address, tx.Dir); err != nil {
		return err
	}
	var err error
	if tx.Dir == Read {
		err = b.readBytes(tx.Data)
	} else {
		err = b.writeBytes(tx.Data)
	}
	if err != nil {
		return err
	}
	b.SendStop()
	return nil
}

// Write sends data to addr in one transaction.
func (b *Bus) Write(addr uint8, data ...byte) error {
	return b.Exec(&Transaction{Address: addr, Dir: Write, Data: data})
}

// start accepts a plain or repeated START. A master that aborted a
// transaction without STOP still owns the bus and sees the latter.
func (b *Bus) start() error {
	b.SendStart()
	if err := b.WaitUntilIdle(); err != nil {
		return err
	}
	got := b.Status()
	if got != StartSent && got != RepeatedStartSent {
		core.RecordEvent(core.EvtBusAbort, uint8(StartSent), uint32(StartSent), uint32(got))
		return &StatusError{Step: "start", Want: StartSent, Got: got}
	}
	return nil
}

func (b *Bus) address(addr uint8, dir Direction) error {
	b.AddressSlave(addr, dir)
	if dir == Read {
		return b.Expect("address read", AddrReadAck)
	}
	return b.Expect("address write", AddrWriteAck)
}

func (b *Bus) writeBytes(data []byte) error {
	for _, d := range data {
		b.TransmitByte(d)
		if err := b.Expect("transmit", DataSentAck); err != nil {
			return err
		}
	}
	return nil
}

// readBytes clocks in len(buf) bytes, ACKing all but the last.
func (b *Bus) readBytes(buf []byte) error {
	n := len(buf)
	if n == 0 {
		return nil
	}
	if n == 1 {
		b.rf.Set(b.regs.TWCR, TWINT|TWEN)
	} else {
		b.Acknowledge()
	}
	for i := 0; i < n; i++ {
		last := i == n-1
		want := DataReceivedAck
		if last {
			want = DataReceivedNack
		}
		if err := b.Expect("receive", want); err != nil {
			return err
		}
		switch {
		case last:
			buf[i] = b.Data()
		case i == n-2:
			buf[i] = b.ReceiveNack()
		default:
			buf[i] = b.ReceiveAck()
		}
	}
	return nil
}
