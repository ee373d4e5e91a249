package game

import (
	"github.com/jakecoffman/cp"
)

// resolveContact applies the damage and score rules to a new contact. It runs
// inside the physics step. A nil side is static environment geometry.
func (w *World) resolveContact(a, b Entity, relVel cp.Vector) {
	if a == nil || b == nil {
		if a == nil {
			a = b
		}
		// walls hurt hazards but never score
		if a != nil && a.Base().Kind() == KindHazard {
			a.OnDamagingContact(nil, relVel, w.t)
		}
		return
	}

	ka, kb := a.Base().Kind(), b.Base().Kind()
	if ka == KindWeapon || kb == KindWeapon {
		return
	}
	if kb == KindPlayer {
		a, b = b, a
		ka = kb
	}
	if ka == KindPlayer {
		w.hitPlayer(a, b, relVel)
		return
	}

	// hazard against hazard, dead or alive
	w.damageHazard(a, b, relVel)
	w.damageHazard(b, a, relVel)
}

// hitPlayer damages the player and, if the hazard is still alive, the hazard
func (w *World) hitPlayer(player, hazard Entity, relVel cp.Vector) {
	pb := player.Base()
	wasAlive, before := pb.Alive(), pb.Health()
	player.OnDamagingContact(hazard, relVel, w.t)
	if wasAlive && pb.Health() < before {
		w.lastDamage = w.t
	}

	if hazard.Base().Alive() {
		w.damageHazard(hazard, player, relVel)
	}
}

// damageHazard damages target and credits the impact to the score while a
// round is running
func (w *World) damageHazard(target, other Entity, relVel cp.Vector) {
	target.OnDamagingContact(other, relVel, w.t)
	if w.state == StateRunning {
		w.score += int64(relVel.Length())
	}
}
