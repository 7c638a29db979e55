package seedr

import (
	"fmt"
	"io"
	"log"
	"os"
)

// WriteSchema emits the target schema DDL plus the pre-seeded reference rows
// the migration expects (roles, appointment states, payment methods,
// location types). The migration itself never creates tables; an operator
// applies this file once before the first run.
func WriteSchema(driver string, w io.Writer) {
	serial := "BIGINT AUTO_INCREMENT PRIMARY KEY"
	if driver == "postgres" {
		serial = "BIGSERIAL PRIMARY KEY"
	}

	if driver == "postgres" {
		fmt.Fprintln(w, "-- Generated schema for PostgreSQL")
		fmt.Fprintln(w, "-- Import with: psql -U <user> -d <db> -f <file>")
	} else {
		fmt.Fprintln(w, "-- Generated schema for MySQL")
		fmt.Fprintln(w, "-- Import with: mysql -u <user> -p <db> < <file>")
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, `CREATE TABLE comunas (
    id_comuna %s,
    nombre VARCHAR(100) NOT NULL UNIQUE
);

CREATE TABLE previsiones (
    id_prevision %s,
    nombre VARCHAR(100) NOT NULL UNIQUE,
    tipo VARCHAR(20) NOT NULL
);

CREATE TABLE especialidades (
    id_especialidad %s,
    nombre VARCHAR(100) NOT NULL UNIQUE
);

CREATE TABLE roles (
    id_rol %s,
    nombre VARCHAR(50) NOT NULL UNIQUE
);

CREATE TABLE pacientes (
    id_paciente %s,
    rut VARCHAR(12) UNIQUE,
    nombres VARCHAR(150),
    apellidos VARCHAR(150),
    email VARCHAR(150),
    telefono VARCHAR(30),
    direccion VARCHAR(250),
    fecha_nacimiento DATE,
    id_prevision BIGINT REFERENCES previsiones (id_prevision),
    id_comuna BIGINT REFERENCES comunas (id_comuna)
);

CREATE TABLE usuarios (
    id_usuario %s,
    email VARCHAR(150) NOT NULL UNIQUE,
    password_hash VARCHAR(100) NOT NULL,
    id_rol BIGINT NOT NULL REFERENCES roles (id_rol)
);

CREATE TABLE profesionales (
    id_profesional %s,
    id_usuario BIGINT NOT NULL REFERENCES usuarios (id_usuario),
    nombres VARCHAR(150) NOT NULL,
    id_especialidad BIGINT REFERENCES especialidades (id_especialidad),
    color_calendario VARCHAR(10),
    comision_base DECIMAL(5,2) NOT NULL DEFAULT 0,
    retencion_impuesto DECIMAL(5,2) NOT NULL DEFAULT 0,
    activo BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE servicios (
    id_servicio %s,
    codigo VARCHAR(20) UNIQUE,
    nombre VARCHAR(200),
    precio_lista INT NOT NULL DEFAULT 0,
    modalidad VARCHAR(20) NOT NULL,
    duracion_minutos INT NOT NULL
);

CREATE TABLE estados_cita (
    id_estado %s,
    codigo VARCHAR(20) NOT NULL UNIQUE
);

CREATE TABLE tipos_ubicacion (
    id_ubicacion %s,
    nombre VARCHAR(100) NOT NULL UNIQUE
);

CREATE TABLE citas (
    id_cita %s,
    codigo_cita VARCHAR(30) UNIQUE,
    id_paciente BIGINT NOT NULL REFERENCES pacientes (id_paciente),
    id_profesional BIGINT NOT NULL REFERENCES profesionales (id_profesional),
    id_servicio BIGINT REFERENCES servicios (id_servicio),
    id_estado BIGINT NOT NULL REFERENCES estados_cita (id_estado),
    id_ubicacion BIGINT NOT NULL REFERENCES tipos_ubicacion (id_ubicacion),
    fecha_inicio TIMESTAMP NOT NULL,
    fecha_fin TIMESTAMP,
    observaciones TEXT,
    observacion_migrada TEXT
);

CREATE TABLE detalle_financiero_cita (
    id_cita BIGINT NOT NULL REFERENCES citas (id_cita),
    precio_cobrado INT NOT NULL DEFAULT 0,
    monto_profesional INT NOT NULL DEFAULT 0,
    monto_clinica INT NOT NULL DEFAULT 0,
    impuesto_retenido INT NOT NULL DEFAULT 0
);

CREATE TABLE metodos_pago (
    id_metodo_pago %s,
    nombre VARCHAR(50) NOT NULL UNIQUE
);

CREATE TABLE pagos (
    id_cita BIGINT NOT NULL REFERENCES citas (id_cita),
    fecha_pago DATE NOT NULL,
    monto INT NOT NULL,
    estado_pago VARCHAR(20) NOT NULL,
    id_metodo_pago BIGINT NOT NULL REFERENCES metodos_pago (id_metodo_pago)
);

CREATE TABLE ficha_clinica (
    id_cita BIGINT NOT NULL REFERENCES citas (id_cita),
    id_paciente BIGINT NOT NULL REFERENCES pacientes (id_paciente),
    observacion_historica TEXT NOT NULL
);

`, serial, serial, serial, serial, serial, serial, serial, serial, serial, serial, serial, serial)

	fmt.Fprintln(w, "INSERT INTO roles (nombre) VALUES ('ADMIN'), ('PROFESIONAL'), ('RECEPCION');")
	fmt.Fprintln(w, "INSERT INTO estados_cita (codigo) VALUES ('AGENDADA'), ('CONFIRMADA'), ('REALIZADA'), ('ANULADA');")
	fmt.Fprintln(w, "INSERT INTO tipos_ubicacion (nombre) VALUES ('Box Consulta'), ('Telemedicina');")
	fmt.Fprintln(w, "INSERT INTO metodos_pago (nombre) VALUES ('Transferencia'), ('Efectivo'), ('Tarjeta'), ('Webpay');")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "CREATE INDEX idx_citas_paciente ON citas (id_paciente);")
	fmt.Fprintln(w, "CREATE INDEX idx_citas_profesional ON citas (id_profesional);")
	fmt.Fprintln(w, "CREATE INDEX idx_citas_fecha ON citas (fecha_inicio);")
	fmt.Fprintln(w, "CREATE INDEX idx_pagos_cita ON pagos (id_cita);")
	fmt.Fprintln(w, "CREATE INDEX idx_detalle_cita ON detalle_financiero_cita (id_cita);")
}

// Schema writes the DDL to a file, mysql dialect unless told otherwise.
func Schema(driver, output string) {
	if driver == "" {
		driver = "mysql"
	}
	f, err := os.Create(output)
	if err != nil {
		log.Fatalf("[FATAL] cannot create output file: %v", err)
	}
	defer f.Close()

	WriteSchema(driver, f)
	log.Printf("[INFO] Schema written: driver=%s file=%s", driver, output)
}
