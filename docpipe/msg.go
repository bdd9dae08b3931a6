// CLAUDE:SUMMARY Outlook .msg loader: reads subject, sender, submit date and body from the compound file.
package docpipe

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/richardlehane/mscfb"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// MAPI property ids read from the top-level message storage.
const (
	propSubject     = "0037"
	propBody        = "1000"
	propSenderName  = "0C1A"
	propSenderEmail = "0C1F"
	propSenderSMTP  = "5D01"

	tagClientSubmitTime    = 0x00390040
	tagMessageDeliveryTime = 0x0E060040

	substgPrefix    = "__substg1.0_"
	propertiesName  = "__properties_version1.0"
	topPropsHeader  = 32
	propEntryLength = 16
)

// loadMSG returns one document whose text is the message body. Metadata
// carries subject, sender and date when present. Attachments and
// recipients are not read.
func loadMSG(_ context.Context, f File) ([]Document, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	doc, err := mscfb.New(fh)
	if err != nil {
		return nil, fmt.Errorf("open compound file: %w", err)
	}

	props := map[string]string{}
	var date time.Time
	for entry, err := doc.Next(); ; entry, err = doc.Next() {
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read compound file: %w", err)
		}
		// Nested storages hold attachments and recipients.
		if len(entry.Path) > 0 {
			continue
		}
		switch {
		case entry.Name == propertiesName:
			data, err := io.ReadAll(entry)
			if err != nil {
				return nil, err
			}
			date = msgDate(data)
		case strings.HasPrefix(entry.Name, substgPrefix) && len(entry.Name) == len(substgPrefix)+8:
			tag := entry.Name[len(substgPrefix):]
			id, typ := strings.ToUpper(tag[:4]), strings.ToUpper(tag[4:])
			if typ != "001F" && typ != "001E" {
				continue
			}
			data, err := io.ReadAll(entry)
			if err != nil {
				return nil, err
			}
			props[id] = decodeMAPIString(data, typ == "001F")
		}
	}

	meta := sourceMeta(f)
	if s := props[propSubject]; s != "" {
		meta["subject"] = s
	}
	if s := msgSender(props); s != "" {
		meta["sender"] = s
	}
	if !date.IsZero() {
		meta["date"] = date.Format(time.RFC1123Z)
	}
	return []Document{{Text: props[propBody], Metadata: meta}}, nil
}

func msgSender(props map[string]string) string {
	name := props[propSenderName]
	email := props[propSenderSMTP]
	if email == "" {
		email = props[propSenderEmail]
	}
	switch {
	case name != "" && email != "" && name != email:
		return name + " <" + email + ">"
	case name != "":
		return name
	}
	return email
}

// decodeMAPIString decodes a PT_UNICODE (UTF-16LE) or PT_STRING8 value.
func decodeMAPIString(data []byte, utf16 bool) string {
	var out []byte
	var err error
	if utf16 {
		out, err = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(data)
	} else {
		out, err = charmap.Windows1252.NewDecoder().Bytes(data)
	}
	if err != nil {
		return ""
	}
	return strings.TrimRight(string(out), "\x00")
}

// msgDate scans the fixed-size property stream of the top-level message for
// the submit time, falling back to the delivery time. Both are FILETIMEs.
func msgDate(data []byte) time.Time {
	if len(data) < topPropsHeader {
		return time.Time{}
	}
	var submit, delivery time.Time
	r := bytes.NewReader(data[topPropsHeader:])
	entry := make([]byte, propEntryLength)
	for {
		if _, err := io.ReadFull(r, entry); err != nil {
			break
		}
		tag := binary.LittleEndian.Uint32(entry[0:4])
		value := binary.LittleEndian.Uint64(entry[8:16])
		switch tag {
		case tagClientSubmitTime:
			submit = filetime(value)
		case tagMessageDeliveryTime:
			delivery = filetime(value)
		}
	}
	if !submit.IsZero() {
		return submit
	}
	return delivery
}

// filetime converts 100ns intervals since 1601-01-01 to a UTC time. Values
// before 1970 or past what time.Unix nanoseconds can hold give the zero time.
func filetime(v uint64) time.Time {
	const epochDelta = 116444736000000000
	if v < epochDelta || v > epochDelta+math.MaxInt64/100 {
		return time.Time{}
	}
	ns := (v - epochDelta) * 100
	return time.Unix(0, int64(ns)).UTC()
}
