package testutil

import (
	"strings"

	"probecli/pkg/contracts/domain"
)

// legacyLines is a small legacy-dialect result file. Element 2 is flagged bad.
var legacyLines = []string{
	"[Header]",
	"SN = P12345",
	"TestStation = TS-01",
	"Operator = alice",
	"Date = 2024-05-01",
	"Time = 10:15:00",
	"",
	"[Probe_Status]",
	"PassOrFail = Pass",
	"",
	"[Impedance]",
	"1 = 50.5ohm",
	"2 = 51.0ohm",
	"3 = 49.8ohm",
	"",
	"[1]",
	"Waveform.Array = 1.0mm, 2.5mm, abc, -3.2mm",
	"",
	"[2]",
	"BadEL = 1",
	"Waveform.Array = 9.9, 8.8",
}

// extendedLines is the same probe written in the extended dialect. Element 4 is flagged bad.
var extendedLines = []string{
	"{Start _FULL data}",
	"[Header_FULL]",
	"SerialNumber = X-77",
	"TestStation = TS-02",
	"Operator = bob",
	"Date = 2024-05-02",
	"Time = 11:00:00",
	"{***Begin_Statistics***}",
	"[Probe_Status_FULL]",
	"Overall_Status = fail",
	"{***End_Statistics***}",
	"{***Begin_Individual_Element_Data***}",
	"[Sensitivity_FULL (dB)]",
	"1 = -42.1dB",
	"2 = -41.7dB",
	"[3_FULL]",
	"Waveform.Array = 0.5, 0.75",
	"[4_FULL]",
	"Bad_Elements = 4",
	"Waveform.Array = 1, 2",
}

// LegacyFile returns the legacy fixture with CRLF line endings
func LegacyFile() []byte {
	return []byte(strings.Join(legacyLines, "\r\n") + "\r\n")
}

// ExtendedFile returns the extended fixture
func ExtendedFile() []byte {
	return []byte(strings.Join(extendedLines, "\n") + "\n")
}

// Latin1File returns a legacy file whose operator name is Latin-1 encoded ("José")
func Latin1File() []byte {
	content := "[Header]\nSN = L-1\nOperator = Jos\xe9\n[Impedance]\n1 = 3.0\n"
	return []byte(content)
}

// LegacySource wraps the legacy fixture as an upload
func LegacySource(name string) domain.SourceFile {
	return domain.SourceFile{Name: name, Content: LegacyFile()}
}

// ExtendedSource wraps the extended fixture as an upload
func ExtendedSource(name string) domain.SourceFile {
	return domain.SourceFile{Name: name, Content: ExtendedFile()}
}

// ProbeFile builds a file from raw lines
func ProbeFile(lines ...string) []byte {
	return []byte(strings.Join(lines, "\n"))
}
