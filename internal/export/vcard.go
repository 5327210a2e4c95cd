package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/skip2/go-qrcode"

	"bizcard/internal/contact"
	"bizcard/internal/fileutil"
	"bizcard/internal/textutil"
)

// DefaultQRSize is the edge length in pixels of generated QR images.
const DefaultQRSize = 256

var vcardEscaper = strings.NewReplacer(`\`, `\\`, ",", `\,`, ";", `\;`, "\n", `\n`)

// VCard renders rec as a vCard 3.0 entry. Sentinel fields are omitted and
// joined phone numbers become separate TEL lines.
func VCard(rec contact.Record) string {
	var b strings.Builder
	line := func(key, value string) {
		b.WriteString(key)
		b.WriteByte(':')
		b.WriteString(value)
		b.WriteString("\r\n")
	}
	value := func(f contact.Field) string {
		if !rec.IsSet(f) {
			return ""
		}
		return vcardEscaper.Replace(strings.TrimSpace(rec.Get(f)))
	}

	line("BEGIN", "VCARD")
	line("VERSION", "3.0")
	name := value(contact.FieldName)
	line("FN", name)
	line("N", structuredName(rec.Name))
	if v := value(contact.FieldDesignation); v != "" {
		line("TITLE", v)
	}
	if v := value(contact.FieldCompany); v != "" {
		line("ORG", v)
	}
	if rec.IsSet(contact.FieldPhone) {
		for _, phone := range strings.Split(rec.Phone, "&") {
			if phone = strings.TrimSpace(phone); phone != "" {
				line("TEL;TYPE=WORK,VOICE", vcardEscaper.Replace(phone))
			}
		}
	}
	if v := value(contact.FieldEmail); v != "" {
		line("EMAIL;TYPE=INTERNET", v)
	}
	if v := value(contact.FieldWebsite); v != "" {
		line("URL", v)
	}
	street, city := value(contact.FieldStreet), value(contact.FieldCity)
	state, pin := value(contact.FieldState), value(contact.FieldPinCode)
	if street+city+state+pin != "" {
		line("ADR;TYPE=WORK", fmt.Sprintf(";;%s;%s;%s;%s;", street, city, state, pin))
	}
	line("END", "VCARD")
	return b.String()
}

// structuredName builds the N property as family;given assuming the last
// word is the family name.
func structuredName(full string) string {
	parts := strings.Fields(full)
	if len(parts) == 0 || full == contact.Sentinel {
		return ";;;;"
	}
	family := vcardEscaper.Replace(parts[len(parts)-1])
	given := vcardEscaper.Replace(strings.Join(parts[:len(parts)-1], " "))
	return family + ";" + given + ";;;"
}

// WriteVCards writes every record as consecutive vCard entries.
func WriteVCards(w io.Writer, records []contact.Record) error {
	for _, rec := range records {
		if _, err := io.WriteString(w, VCard(rec)); err != nil {
			return err
		}
	}
	return nil
}

// VCardQR encodes rec's vCard as a PNG QR code.
func VCardQR(rec contact.Record, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultQRSize
	}
	png, err := qrcode.Encode(VCard(rec), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

// QRFileName is the file name used for rec's QR image.
func QRFileName(rec contact.Record) string {
	return fmt.Sprintf("%d-%s.png", rec.ID, textutil.SanitizeToken(rec.Name))
}

// WriteQRDir writes one QR PNG per record into dir and returns the paths.
func WriteQRDir(dir string, records []contact.Record, size int) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create qr dir: %w", err)
	}
	paths := make([]string, 0, len(records))
	for _, rec := range records {
		png, err := VCardQR(rec, size)
		if err != nil {
			return paths, fmt.Errorf("card %d: %w", rec.ID, err)
		}
		path := filepath.Join(dir, QRFileName(rec))
		if err := fileutil.WriteFileAtomic(path, png, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
