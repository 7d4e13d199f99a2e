package viewer

// address is the session's fragment. Changing it queues an addressChanged
// event on the owning session, like a browser queuing hashchange.
type address struct {
	fragment string
	session  *Session
}

func (a *address) Fragment() string { return a.fragment }

func (a *address) SetFragment(fragment string) {
	if fragment == a.fragment {
		return
	}
	a.fragment = fragment
	a.session.enqueue(addressChanged{})
}

func (a *address) ReplaceFragment(fragment string) {
	a.fragment = fragment
}
