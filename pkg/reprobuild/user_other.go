//go:build !linux

package reprobuild

func dockerUserGroup() string {
	return "1000:1000"
}
