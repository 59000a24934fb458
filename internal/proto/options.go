package proto

// GameOptions carries the subset of the host's game settings the server
// actually looks at. The full settings blob is opaque gameplay content;
// only the leading fields are decoded and the rest rides along under the
// declared length.
type GameOptions struct {
	// Length is the declared size of the settings body.
	Length uint32
	// Version of the settings serialization.
	Version byte
	// MaxPlayers requested by the host.
	MaxPlayers byte
	// Keywords is the chat language bitmask.
	Keywords uint32
	// MapID selects the map.
	MapID byte
}

// ReadGameOptions decodes the leading fields of a serialized settings
// blob. The cursor is left after the map field; callers rely on the
// enclosing message framing to skip whatever follows.
func ReadGameOptions(r *MessageReader) (*GameOptions, error) {
	opts := &GameOptions{}

	var err error
	if opts.Length, err = r.ReadPackedUint32(); err != nil {
		return nil, err
	}
	if opts.Version, err = r.ReadByte(); err != nil {
		return nil, err
	}
	if opts.MaxPlayers, err = r.ReadByte(); err != nil {
		return nil, err
	}
	if opts.Keywords, err = r.ReadUint32(); err != nil {
		return nil, err
	}
	if opts.MapID, err = r.ReadByte(); err != nil {
		return nil, err
	}

	return opts, nil
}
