package buildtool

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Board is a board definition matched to a port.
type Board struct {
	Name string `json:"name"`
	FQBN string `json:"fqbn"`
}

// Device is a port reported by the build tool with its matching boards.
type Device struct {
	Address  string
	Label    string
	Protocol string
	Boards   []Board
}

// String renders the device as "address (board, ...)".
func (d Device) String() string {
	if len(d.Boards) == 0 {
		if d.Label != "" && d.Label != d.Address {
			return fmt.Sprintf("%s (%s)", d.Address, d.Label)
		}
		return d.Address
	}

	names := make([]string, 0, len(d.Boards))
	for _, b := range d.Boards {
		if b.FQBN != "" {
			names = append(names, fmt.Sprintf("%s [%s]", b.Name, b.FQBN))
		} else {
			names = append(names, b.Name)
		}
	}
	return fmt.Sprintf("%s (%s)", d.Address, strings.Join(names, ", "))
}

type detectedPort struct {
	Port struct {
		Address       string `json:"address"`
		Label         string `json:"label"`
		Protocol      string `json:"protocol"`
		ProtocolLabel string `json:"protocol_label"`
	} `json:"port"`
	MatchingBoards []Board `json:"matching_boards"`
}

type boardList struct {
	DetectedPorts []detectedPort `json:"detected_ports"`
}

// parseBoardList decodes "board list --format json". Current releases wrap
// the ports in {"detected_ports": [...]}; older ones print the array bare.
func parseBoardList(data []byte) ([]Device, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var ports []detectedPort
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &ports); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrOutput, err)
		}
	case '{':
		var list boardList
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrOutput, err)
		}
		ports = list.DetectedPorts
	default:
		return nil, fmt.Errorf("%w: expected JSON, got %q", ErrOutput, firstLine(string(data)))
	}

	devices := make([]Device, 0, len(ports))
	for _, p := range ports {
		if p.Port.Address == "" {
			continue
		}
		label := p.Port.Label
		if label == "" {
			label = p.Port.ProtocolLabel
		}
		devices = append(devices, Device{
			Address:  p.Port.Address,
			Label:    label,
			Protocol: p.Port.Protocol,
			Boards:   p.MatchingBoards,
		})
	}
	return devices, nil
}
