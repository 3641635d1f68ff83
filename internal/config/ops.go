package config

import "strings"

// FindProfile looks a ModProfile up by ID or case-insensitive name.
func (c Config) FindProfile(ref string) (ModProfile, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ModProfile{}, false
	}
	for _, p := range c.Profiles {
		if p.ID == ref || strings.EqualFold(p.Name, ref) {
			return p, true
		}
	}
	return ModProfile{}, false
}

func (c *Config) UpsertProfile(p ModProfile) {
	for i := range c.Profiles {
		if c.Profiles[i].ID == p.ID {
			c.Profiles[i] = p
			return
		}
	}
	c.Profiles = append(c.Profiles, p)
}

func (c *Config) RemoveProfile(id string) bool {
	for i := range c.Profiles {
		if c.Profiles[i].ID != id {
			continue
		}
		c.Profiles = append(c.Profiles[:i], c.Profiles[i+1:]...)
		return true
	}
	return false
}

func (c Config) SessionsForProfile(profileID string) []LaunchRecord {
	var out []LaunchRecord
	for _, s := range c.Sessions {
		if s.ProfileID == profileID {
			out = append(out, s)
		}
	}
	return out
}

func (c *Config) UpsertSession(rec LaunchRecord) {
	for i := range c.Sessions {
		if c.Sessions[i].ID == rec.ID {
			c.Sessions[i] = rec
			return
		}
	}
	c.Sessions = append(c.Sessions, rec)
}

func (c *Config) RemoveSession(id string) bool {
	for i := range c.Sessions {
		if c.Sessions[i].ID != id {
			continue
		}
		c.Sessions = append(c.Sessions[:i], c.Sessions[i+1:]...)
		return true
	}
	return false
}
