package firmware

import (
	"avrkit/lcd"
	"avrkit/protocol"
)

func (a *App) registerHandlers() {
	a.reg.Handle("identify", a.handleIdentify)
	a.reg.Handle("lcd_print", a.handleLCDPrint)
	a.reg.Handle("seg_show", a.handleSegShow)
	a.reg.Handle("nunchuk_calibrate", a.handleNunchukCalibrate)
	a.reg.Handle("range_calibrate", a.handleRangeCalibrate)
}

// handleIdentify answers with one chunk of the compressed dictionary.
func (a *App) handleIdentify(data *[]byte) error {
	var m protocol.Identify
	if err := m.Decode(data); err != nil {
		return err
	}
	count := int(m.Count)
	if count > len(a.chunk) {
		count = len(a.chunk)
	}
	chunk := a.dict.Chunk(a.chunk[:0], m.Offset, count)
	a.send(protocol.IdentifyResponse{Offset: m.Offset, Data: chunk})
	return nil
}

// handleLCDPrint writes text on a line. An unknown justification is
// treated as left and any line but 0 as the second line, matching the
// LCD driver.
func (a *App) handleLCDPrint(data *[]byte) error {
	var m protocol.LCDPrint
	if err := m.Decode(data); err != nil {
		return err
	}
	justify := lcd.Justify(m.Justify)
	if justify > lcd.Right {
		justify = lcd.Left
	}
	a.lcd.WriteString(m.Text, justify, m.Line)
	return nil
}

func (a *App) handleSegShow(data *[]byte) error {
	var m protocol.SegShow
	if err := m.Decode(data); err != nil {
		return err
	}
	a.seg.ShowHex(m.Value, m.Dot)
	return nil
}

// handleNunchukCalibrate takes the controller's current position as
// neutral. A bus failure is reported and the old offsets stay.
func (a *App) handleNunchukCalibrate(data *[]byte) error {
	if err := a.nunchuk.Calibrate(); err != nil {
		a.reportBusError(err)
		return err
	}
	// the calibration read consumed the latched report
	if a.nunchukTask.State == nunchukRead {
		a.nunchukTask.State = nunchukRequest
	}
	return nil
}

// handleRangeCalibrate sets the range correction from a reading and the
// true distance.
func (a *App) handleRangeCalibrate(data *[]byte) error {
	var m protocol.RangeCalibrate
	if err := m.Decode(data); err != nil {
		return err
	}
	if a.finder == nil {
		return errNoRangeFinder
	}
	a.finder.Calibrate(uint16(m.Measured), uint16(m.Actual))
	return nil
}
