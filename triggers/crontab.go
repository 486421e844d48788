package triggers

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const marker = "# uhppoted-app-wordpress:"

// Crontab maintains the uhppoted-app-wordpress entries in a crontab file. Each managed entry is tagged with
// a trailing marker comment naming the trigger, which is what makes registration idempotent. Lines without
// a marker are preserved as is.
type Crontab struct {
	// Command is the command line prefix for every entry e.g. '/usr/local/bin/uhppoted-app-wordpress --config ...'
	Command string

	// User is the account for each entry. Only system crontabs (/etc/crontab and /etc/cron.d) have a user
	// field, so it should be left blank for a user crontab.
	User string

	lines    []string
	triggers map[string]Trigger
}

func NewCrontab(command string) *Crontab {
	return &Crontab{
		Command:  command,
		lines:    []string{},
		triggers: map[string]Trigger{},
	}
}

// ReadCrontab parses an existing crontab.
func ReadCrontab(r io.Reader, command string) (*Crontab, error) {
	c := NewCrontab(command)
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := scanner.Text()
		c.lines = append(c.lines, line)

		if ix := strings.LastIndex(line, marker); ix >= 0 {
			name := strings.TrimSpace(line[ix+len(marker):])
			fields := strings.Fields(line[:ix])
			if len(fields) >= 5 {
				c.triggers[name] = Trigger{
					Name:     name,
					Schedule: strings.Join(fields[:5], " "),
				}
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Crontab) Register(t Trigger) error {
	if err := validate(t); err != nil {
		return err
	}

	entry := c.entry(t)
	tag := marker + t.Name

	for i, line := range c.lines {
		if strings.HasSuffix(strings.TrimSpace(line), tag) {
			c.lines[i] = entry
			c.triggers[t.Name] = t

			return nil
		}
	}

	c.lines = append(c.lines, entry)
	c.triggers[t.Name] = t

	return nil
}

func (c *Crontab) Triggers() []Trigger {
	return sorted(c.triggers)
}

func (c *Crontab) Write(w io.Writer) error {
	for _, line := range c.lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	return nil
}

func (c *Crontab) entry(t Trigger) string {
	if c.User != "" {
		return fmt.Sprintf("%s %s %s %s %s%s", t.Schedule, c.User, c.Command, t.Name, marker, t.Name)
	}

	return fmt.Sprintf("%s %s %s %s%s", t.Schedule, c.Command, t.Name, marker, t.Name)
}
