// SPDX-License-Identifier: MIT
//
// Copyright © 2026 The Advanced-GPRS-Shield Authors.

package gsm

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sigalabs/Advanced-GPRS-Shield/at"
	"github.com/sigalabs/Advanced-GPRS-Shield/info"
	"github.com/warthog618/sms"
)

// InitSMSMemory selects the SIM for all SMS storage and disables new message
// indications.
func (g *GSM) InitSMSMemory() error {
	lease, err := g.Line().Acquire(at.LineCommand)
	if err != nil {
		return err
	}
	defer lease.Release()
	return g.initSMSMemory()
}

func (g *GSM) initSMSMemory() error {
	if err := g.SendCmdWaitResp("+CNMI=2,0", at.LongTimeout, at.InterCharTimeout, "OK", 2).Err(); err != nil {
		return err
	}
	return g.SendCmdWaitResp(`+CPMS="SM","SM","SM"`, at.LongTimeout, at.LongTimeout, "+CPMS:", 10).Err()
}

// SendSMS sends a text mode SMS message to the number.
//
// The message reference is returned on success. If the GSM was created
// WithDryRun the message is abandoned rather than sent, and the reference
// is 0.
func (g *GSM) SendSMS(number, message string) (int, error) {
	lease, err := g.Line().Acquire(at.LineCommand)
	if err != nil {
		return 0, err
	}
	defer lease.Release()
	return g.sendSMS(`+CMGS="`+number+`"`, message)
}

// sendSMS performs the two step +CMGS exchange, retrying up to 3 times.
func (g *GSM) sendSMS(cmd, body string) (int, error) {
	expected := "+CMGS"
	if g.dryRun {
		expected = "OK"
	}
	err := at.ErrNoResponse
	for i := 0; i < 3; i++ {
		if err = g.SendSMSCommand(cmd); err != nil {
			continue
		}
		if o := g.WaitRespFor(at.LongTimeout, at.InterCharTimeout, ">"); o != at.ResponseMatched {
			err = outcomeError(o)
			continue
		}
		if err = g.WriteSMS(body, g.dryRun); err != nil {
			continue
		}
		if o := g.WaitRespFor(at.XXLongTimeout, at.InterCharTimeout, expected); o != at.ResponseMatched {
			err = outcomeError(o)
			continue
		}
		if g.dryRun {
			return 0, nil
		}
		mr, err := info.Int(g.Rx().Bytes(), "+CMGS:")
		if err != nil {
			return 0, ErrMalformedResponse
		}
		return mr, nil
	}
	return 0, errors.Wrap(err, "AT+CMGS")
}

// SendSMSToPosition sends a text mode SMS message to the number stored at
// the SIM phonebook position.
func (g *GSM) SendSMSToPosition(pos int, message string) (int, error) {
	number, err := g.GetPhoneNumber(pos)
	if err != nil {
		return 0, err
	}
	return g.SendSMS(number, message)
}

// SendPDU sends the message to the number in PDU mode, splitting it into
// multiple parts if necessary.
//
// The message references of the parts are returned. The modem is returned
// to text mode afterwards.
func (g *GSM) SendPDU(number, message string) ([]int, error) {
	tpdus, err := sms.Encode([]byte(message), sms.AsSubmit, sms.To(number))
	if err != nil {
		return nil, errors.Wrap(err, "encode")
	}
	lease, err := g.Line().Acquire(at.LineCommand)
	if err != nil {
		return nil, err
	}
	defer lease.Release()
	if err := g.SendCmdWaitResp("+CMGF=0", at.LongTimeout, at.InterCharTimeout, "OK", 2).Err(); err != nil {
		return nil, err
	}
	defer g.SendCmdWaitResp("+CMGF=1", at.LongTimeout, at.InterCharTimeout, "OK", 2)
	var mrs []int
	for _, t := range tpdus {
		b, err := t.MarshalBinary()
		if err != nil {
			return mrs, errors.Wrap(err, "marshal")
		}
		// default SMSC
		pdu := strings.ToUpper(hex.EncodeToString(append([]byte{0}, b...)))
		mr, err := g.sendSMS("+CMGS="+strconv.Itoa(len(b)), pdu)
		if err != nil {
			return mrs, err
		}
		mrs = append(mrs, mr)
	}
	return mrs, nil
}

// SMSFilter selects the messages considered by IsSMSPresent.
type SMSFilter int

const (
	SMSFilterUnread SMSFilter = iota
	SMSFilterRead
	SMSFilterAll
)

var smsFilters = map[SMSFilter]string{
	SMSFilterUnread: `"REC UNREAD"`,
	SMSFilterRead:   `"REC READ"`,
	SMSFilterAll:    `"ALL"`,
}

// IsSMSPresent returns the position of the first message matching the
// filter, or 0 if there are none.
func (g *GSM) IsSMSPresent(filter SMSFilter) (int, error) {
	f, ok := smsFilters[filter]
	if !ok {
		return 0, errors.Errorf("unknown SMS filter %d", filter)
	}
	lease, err := g.Line().Acquire(at.LineCommand)
	if err != nil {
		return 0, err
	}
	defer lease.Release()
	if err := g.Send("+CMGL=" + f); err != nil {
		return 0, err
	}
	if g.WaitRespUntil(at.XLongTimeout, at.LongInterCharTimeout, "OK") != at.RxFinished {
		return 0, errors.Wrap(at.ErrNoResponse, "AT+CMGL")
	}
	pos, err := info.ListIndex(g.Rx().Bytes())
	// swallow the remainder of the listing
	g.WaitResp(at.TinyTimeout, at.InterCharTimeout)
	if err != nil {
		return 0, nil
	}
	return pos, nil
}

// GetSMS reads the message at the SIM position into the number and body
// buffers.
//
// The buffers are NUL terminated. Fields that do not fit are silently
// truncated to one less than the buffer length. A position with no message,
// or one the modem rejects with a bare ERROR, returns SMSNone.
func (g *GSM) GetSMS(pos int, number, body []byte) (info.SMSStatus, error) {
	if pos == 0 {
		return info.SMSNone, ErrInvalidPosition
	}
	clearCString(number)
	clearCString(body)
	r, err := g.Exec("+CMGR="+strconv.Itoa(pos), at.XLongTimeout, at.MidInterCharTimeout, "+CMGR", 1)
	if err != nil {
		if errors.Is(err, at.ErrMismatch) || errors.Is(err, at.ErrError) {
			return info.SMSNone, nil
		}
		return info.SMSNone, err
	}
	s, err := info.ParseSMS(r.Data)
	if err != nil {
		return s.Status, err
	}
	info.CopyCString(number, s.Number.In(r.Data))
	info.CopyCString(body, s.Body.In(r.Data))
	return s.Status, nil
}

// SMS is a message read from the SIM.
type SMS struct {
	Status info.SMSStatus
	Number string
	Body   string
}

// ReadSMS reads the message at the SIM position.
//
// The body is limited to at.BufferSize bytes less the header.
func (g *GSM) ReadSMS(pos int) (SMS, error) {
	number := make([]byte, 32)
	body := make([]byte, at.BufferSize)
	status, err := g.GetSMS(pos, number, body)
	return SMS{
		Status: status,
		Number: string(at.Text(number)),
		Body:   string(at.Text(body)),
	}, err
}

// GetAuthorizedSMS reads the message at the SIM position, as per GetSMS, and
// checks if the sender is authorized.
//
// The sender is authorized if its number matches a phonebook entry between
// the first and last positions inclusive. If both positions are 0 then all
// senders are authorized. Only received messages are authorized.
func (g *GSM) GetAuthorizedSMS(pos int, number, body []byte, first, last int) (info.SMSStatus, bool, error) {
	status, err := g.GetSMS(pos, number, body)
	if err != nil || (status != info.SMSRead && status != info.SMSUnread) {
		return status, false, err
	}
	auth, err := g.authorized(string(at.Text(number)), first, last)
	return status, auth, err
}

// DeleteSMS deletes the message at the SIM position.
func (g *GSM) DeleteSMS(pos int) error {
	if pos == 0 {
		return ErrInvalidPosition
	}
	_, err := g.Exec("+CMGD="+strconv.Itoa(pos), at.XLongTimeout, at.InterCharTimeout, "OK", 1)
	return err
}

func clearCString(b []byte) {
	if len(b) > 0 {
		b[0] = 0
	}
}

func outcomeError(o at.Outcome) error {
	if o == at.NoResponse {
		return at.ErrNoResponse
	}
	return at.ErrMismatch
}
