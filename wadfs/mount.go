package wadfs

import (
	"fmt"

	"bazil.org/fuse"
)

// MountOptions are passed to the kernel when mounting.
type MountOptions struct {
	FSName     string
	AllowOther bool
	ReadOnly   bool
}

// Mount attaches a FUSE connection at mountpoint. Serve the returned
// connection with fs.Serve and close it after unmounting.
func Mount(mountpoint string, o MountOptions) (*fuse.Conn, error) {
	name := o.FSName
	if name == "" {
		name = "wadfs"
	}
	opts := []fuse.MountOption{
		fuse.FSName(name),
		fuse.Subtype("wadfs"),
	}
	if o.AllowOther {
		opts = append(opts, fuse.AllowOther())
	}
	if o.ReadOnly {
		opts = append(opts, fuse.ReadOnly())
	}
	c, err := fuse.Mount(mountpoint, opts...)
	if err != nil {
		return nil, fmt.Errorf("mounting at %s: %w", mountpoint, err)
	}
	return c, nil
}
