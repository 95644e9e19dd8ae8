package session

import "fmt"

// Notice is the acknowledgement shown to the shopper after an operation.
type Notice struct {
	Title   string
	Message string
}

// IsZero reports whether n carries no acknowledgement.
func (n Notice) IsZero() bool {
	return n.Title == "" && n.Message == ""
}

var (
	noticeAdded          = Notice{Title: "Agregado", Message: "Producto añadido al carrito"}
	noticeRemoved        = Notice{Title: "Quitado", Message: "Producto eliminado del carrito"}
	noticeCartCleared    = Notice{Title: "Listo", Message: "Carrito vaciado"}
	noticeMissingInfo    = Notice{Title: "Falta información", Message: "Completa nombre, teléfono y dirección"}
	noticeEmptyCart      = Notice{Title: "Carrito vacío", Message: "Agrega productos antes de finalizar"}
	noticeHistoryCleared = Notice{Title: "Listo", Message: "Historial eliminado"}
)

func noticePlaced(id int64) Notice {
	return Notice{Title: "Pedido creado", Message: fmt.Sprintf("Tu pedido #%d fue registrado", id)}
}
