package repository

import "context"

// ICVCounter contador de factura (KSA-16).
//
// Next incrementa en exactamente 1 y devuelve el nuevo valor como una sola operación
// atómica y persistida; un valor nunca se reutiliza ni decrece. Se asume un único
// escritor por cadena: quien llama debe serializar la generación de facturas.
type ICVCounter interface {
	Next(ctx context.Context) (int64, error)
	Current(ctx context.Context) (int64, error)
}
