package main

import (
	"fmt"

	echoapi "github.com/trezcool/masomo-calendar/apps/api/echo"
)

func tokenIdentity(sub, name, email, roles string, admin, teacher, student bool) echoapi.Identity {
	return echoapi.Identity{
		ID:        sub,
		Name:      name,
		Email:     email,
		IsAdmin:   admin,
		IsTeacher: teacher,
		IsStudent: student,
		Roles:     splitRoles(roles),
	}
}

// token prints a signed API token for id, valid for the configured JWT expiration delta.
func (cli *commandLine) token(id echoapi.Identity) error {
	token, err := echoapi.GenerateToken(echoapi.NewClaims(id, cli.conf), cli.conf)
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, token)
	return nil
}
