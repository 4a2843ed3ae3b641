package board

import "fmt"

func (c Cell) Opponent() Cell {
	switch c {
	case SideA:
		return SideB
	case SideB:
		return SideA
	default:
		return Empty
	}
}

func (c Cell) symbol() byte {
	switch c {
	case SideA:
		return 'O'
	case SideB:
		return 'X'
	default:
		return '_'
	}
}

func (c Cell) String() string {
	return string(c.symbol())
}

func (c Cell) MarshalText() ([]byte, error) {
	return []byte{c.symbol()}, nil
}

func (k Kind) String() string {
	switch k {
	case FreePlacement:
		return "free"
	case GravityDrop:
		return "gravity"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func ParseKind(s string) (Kind, error) {
	switch s {
	case "free":
		return FreePlacement, nil
	case "gravity":
		return GravityDrop, nil
	default:
		return 0, fmt.Errorf("unknown board kind %q", s)
	}
}

func (c *Cell) UnmarshalText(text []byte) error {
	switch string(text) {
	case "_", ".":
		*c = Empty
	case "O":
		*c = SideA
	case "X":
		*c = SideB
	default:
		return fmt.Errorf("%w: %q", ErrInvalidCell, text)
	}
	return nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
