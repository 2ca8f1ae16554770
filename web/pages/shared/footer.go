package shared

import (
	"strconv"
	"time"

	"github.com/rohanthewiz/element"
)

type Footer struct{}

func (f Footer) Render(b *element.Builder) any {
	b.Footer("class", "page-footer").R(
		b.P().T("Copyright &copy; " + strconv.Itoa(time.Now().Year())),
	)
	return nil
}
