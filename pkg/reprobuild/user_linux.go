package reprobuild

import (
	"fmt"
	"os"
)

// dockerUserGroup maps the container user to the host user. The checkout is mounted natively
// on linux, so files the build writes must be owned by the invoking user.
func dockerUserGroup() string {
	return fmt.Sprintf("%d:%d", os.Getuid(), os.Getgid())
}
