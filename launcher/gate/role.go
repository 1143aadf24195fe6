package gate

import (
	"math"
	"time"

	"github.com/glauncher/glauncher-api/model"
)

const daysPerMonth = 30.44

var tiers = []struct {
	months float64
	role   string
}{
	{8, model.RoleDiamond},
	{5, model.RoleGold},
	{3, model.RoleIron},
	{2, model.RoleStone},
}

// DeriveRole computes the tier a user should hold at now. Admins hold the top
// tier; everyone else climbs with account age.
func DeriveRole(u *model.User, now time.Time) string {
	if u.IsAdmin {
		return model.RoleNetherite
	}
	age := now.Sub(u.RegistrationDate)
	if age < 0 {
		age = -age
	}
	days := math.Ceil(age.Hours() / 24)
	months := days / daysPerMonth
	for _, t := range tiers {
		if months >= t.months {
			return t.role
		}
	}
	return model.RoleWood
}
