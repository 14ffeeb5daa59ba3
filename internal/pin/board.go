package pin

import "fmt"

// headerPins maps BCM numbers exposed on the 40-pin Raspberry Pi header to
// their conventional function names. Pins outside this table exist on the SoC
// but are not physically reachable on a stock board.
var headerPins = map[int]string{
	0:  "ID_SD",
	1:  "ID_SC",
	2:  "SDA1",
	3:  "SCL1",
	4:  "GPCLK0",
	5:  "GPIO5",
	6:  "GPIO6",
	7:  "CE1",
	8:  "CE0",
	9:  "MISO",
	10: "MOSI",
	11: "SCLK",
	12: "GPIO12",
	13: "GPIO13",
	14: "TXD",
	15: "RXD",
	16: "GPIO16",
	17: "GPIO17",
	18: "GPIO18",
	19: "GPIO19",
	20: "GPIO20",
	21: "GPIO21",
	22: "GPIO22",
	23: "GPIO23",
	24: "GPIO24",
	25: "GPIO25",
	26: "GPIO26",
	27: "GPIO27",
}

// fixedPullUp lists BCM pins with permanent on-board pull-up resistors
// (the I2C bus). Requesting pull-down on these fights physical hardware.
var fixedPullUp = map[int]bool{2: true, 3: true}

// Name returns the conventional header name for a BCM pin, or "" if the pin
// is not on the 40-pin header.
func Name(number int) string {
	return headerPins[number]
}

// CheckRequest validates a pin number against the header table. It returns
// human-readable warnings for legal-but-suspicious requests, and an error for
// requests that cannot work. Callers log the warnings; they are advisory only.
func CheckRequest(req Request) (warnings []string, err error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	name, ok := headerPins[req.Number]
	if !ok {
		warnings = append(warnings,
			fmt.Sprintf("pin %d is not exposed on the 40-pin header", req.Number))
		return warnings, nil
	}
	if fixedPullUp[req.Number] && req.Pull == PullDown {
		warnings = append(warnings,
			fmt.Sprintf("pin %d (%s) has a fixed physical pull-up; pull-down will not behave", req.Number, name))
	}
	if req.Number <= 1 {
		warnings = append(warnings,
			fmt.Sprintf("pin %d (%s) is reserved for the HAT EEPROM", req.Number, name))
	}
	return warnings, nil
}
